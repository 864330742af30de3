package commerce

import (
	"context"
	"time"
)

// Seed loads a demo catalog and coupons if the products table is empty.
func (s *SQLiteService) Seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []Product{
		{ID: "ram-corsair-16", Name: "Corsair Vengeance 16GB DDR5", Category: "ram", Price: 64.99, Stock: 40},
		{ID: "ram-gskill-32", Name: "G.Skill Trident Z5 32GB DDR5", Category: "ram", Price: 119.99, Stock: 25},
		{ID: "ram-kingston-16", Name: "Kingston Fury 16GB DDR4", Category: "ram", Price: 42.99, Stock: 60},
		{ID: "ssd-samsung-1tb", Name: "Samsung 990 Pro 1TB NVMe", Category: "ssd", Price: 109.99, Stock: 35},
		{ID: "ssd-wd-2tb", Name: "WD Black SN850X 2TB NVMe", Category: "ssd", Price: 179.99, Stock: 20},
		{ID: "ssd-crucial-1tb", Name: "Crucial P5 Plus 1TB NVMe", Category: "ssd", Price: 84.99, Stock: 50},
		{ID: "cpu-ryzen-7800", Name: "AMD Ryzen 7 7800X3D", Category: "cpu", Price: 399.99, Stock: 15},
		{ID: "cpu-intel-14700", Name: "Intel Core i7-14700K", Category: "cpu", Price: 389.99, Stock: 18},
		{ID: "cpu-ryzen-7600", Name: "AMD Ryzen 5 7600", Category: "cpu", Price: 219.99, Stock: 30},
		{ID: "gpu-rtx-4070", Name: "NVIDIA GeForce RTX 4070 Super", Category: "gpu", Price: 599.99, Stock: 12},
		{ID: "gpu-rx-7800", Name: "AMD Radeon RX 7800 XT", Category: "gpu", Price: 499.99, Stock: 14},
		{ID: "psu-corsair-750", Name: "Corsair RM750e 750W Gold", Category: "psu", Price: 99.99, Stock: 28},
		{ID: "psu-seasonic-850", Name: "Seasonic Focus GX-850 850W", Category: "psu", Price: 139.99, Stock: 16},
		{ID: "mb-asus-b650", Name: "ASUS TUF Gaming B650-Plus", Category: "motherboard", Price: 189.99, Stock: 22},
		{ID: "mb-msi-z790", Name: "MSI PRO Z790-P WiFi", Category: "motherboard", Price: 219.99, Stock: 17},
		{ID: "cool-noctua-d15", Name: "Noctua NH-D15 Air Cooler", Category: "aircooler", Price: 109.99, Stock: 26},
		{ID: "cool-deepcool-ak620", Name: "DeepCool AK620 Air Cooler", Category: "aircooler", Price: 64.99, Stock: 33},
		{ID: "case-fractal-north", Name: "Fractal Design North", Category: "case", Price: 129.99, Stock: 19},
		{ID: "case-lianli-216", Name: "Lian Li Lancool 216", Category: "case", Price: 99.99, Stock: 24},
		{ID: "acc-mouse-g502", Name: "Logitech G502 Hero Mouse", Category: "accessories", Price: 49.99, Stock: 80},
		{ID: "acc-kb-k70", Name: "Corsair K70 RGB Keyboard", Category: "accessories", Price: 159.99, Stock: 45},
	}
	for _, p := range products {
		if _, err := s.AddProduct(ctx, p); err != nil {
			return err
		}
	}

	expiry := time.Now().UTC().AddDate(1, 0, 0)
	coupons := []Coupon{
		{Code: "SAVE10", PercentOff: 10, ExpiresAt: expiry},
		{Code: "WELCOME20", PercentOff: 20, ExpiresAt: expiry},
		{Code: "FLAT25", AmountOff: 25, ExpiresAt: expiry},
	}
	for _, c := range coupons {
		if err := s.AddCoupon(ctx, c); err != nil {
			return err
		}
	}
	return nil
}
