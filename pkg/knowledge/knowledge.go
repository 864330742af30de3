// Package knowledge provides the retrieval provider: keyword search over the
// store's knowledge base with token-budgeted context assembly.
package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure-Go SQLite driver
)

// Doc is one knowledge base article.
type Doc struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Tags    string `json:"tags,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS docs (
	id      TEXT PRIMARY KEY,
	title   TEXT NOT NULL,
	content TEXT NOT NULL,
	tags    TEXT NOT NULL DEFAULT ''
);
`

// Base is the SQLite-backed knowledge base.
type Base struct {
	db      *sql.DB
	counter *TokenCounter
}

// Open creates the knowledge database at path, applying the schema.
func Open(path string) (*Base, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open knowledge database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping knowledge database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize knowledge schema: %w", err)
	}
	db.SetMaxOpenConns(1)

	counter, err := NewTokenCounter()
	if err != nil {
		// Counting falls back to character estimation.
		counter = nil
	}

	return &Base{db: db, counter: counter}, nil
}

// Close releases the underlying database handle.
func (b *Base) Close() error {
	return b.db.Close()
}

// Add inserts or updates an article.
func (b *Base) Add(ctx context.Context, doc Doc) (Doc, error) {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO docs (id, title, content, tags) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title, content = excluded.content, tags = excluded.tags`,
		doc.ID, doc.Title, doc.Content, doc.Tags)
	if err != nil {
		return Doc{}, fmt.Errorf("failed to add knowledge doc: %w", err)
	}
	return doc, nil
}

// Search returns up to k articles scored by keyword overlap with the query.
func (b *Base) Search(ctx context.Context, query string, k int) ([]Doc, error) {
	if k <= 0 {
		k = 3
	}

	rows, err := b.db.QueryContext(ctx, `SELECT id, title, content, tags FROM docs`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan knowledge base: %w", err)
	}
	defer rows.Close()

	type scored struct {
		doc   Doc
		score int
	}

	terms := queryTerms(query)
	var results []scored
	for rows.Next() {
		var doc Doc
		if err := rows.Scan(&doc.ID, &doc.Title, &doc.Content, &doc.Tags); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge doc: %w", err)
		}
		score := scoreDoc(&doc, terms)
		if score > 0 {
			results = append(results, scored{doc: doc, score: score})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("knowledge row iteration error: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool { return results[i].score > results[j].score })
	if len(results) > k {
		results = results[:k]
	}

	docs := make([]Doc, 0, len(results))
	for _, r := range results {
		docs = append(docs, r.doc)
	}
	return docs, nil
}

// GetContext assembles the best-matching articles into a single prompt
// fragment within the token budget.
func (b *Base) GetContext(ctx context.Context, query string, tokenBudget int) (string, error) {
	if tokenBudget <= 0 {
		tokenBudget = 1500
	}

	docs, err := b.Search(ctx, query, 5)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", nil
	}

	var out strings.Builder
	used := 0
	for _, doc := range docs {
		fragment := fmt.Sprintf("## %s\n%s\n\n", doc.Title, doc.Content)
		cost := b.counter.CountTokens(fragment)
		if used+cost > tokenBudget {
			remaining := tokenBudget - used
			if remaining <= 0 {
				break
			}
			out.WriteString(b.counter.TruncateToTokenLimit(fragment, remaining))
			break
		}
		out.WriteString(fragment)
		used += cost
	}
	return strings.TrimSpace(out.String()), nil
}

func queryTerms(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "?.,!\"'")
		if len(f) > 2 {
			terms = append(terms, f)
		}
	}
	return terms
}

func scoreDoc(doc *Doc, terms []string) int {
	title := strings.ToLower(doc.Title)
	content := strings.ToLower(doc.Content)
	tags := strings.ToLower(doc.Tags)

	score := 0
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += 3
		}
		if strings.Contains(tags, term) {
			score += 2
		}
		if strings.Contains(content, term) {
			score++
		}
	}
	return score
}

// Seed loads default store policy articles if the base is empty.
func (b *Base) Seed(ctx context.Context) error {
	var count int
	if err := b.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM docs`).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	docs := []Doc{
		{
			ID:      "policy-returns",
			Title:   "Return Policy",
			Content: "Items can be returned within 30 days of delivery for a full refund. Opened software and custom PC builds are non-refundable. Refunds are issued to the original payment method within 5 business days.",
			Tags:    "returns refund policy",
		},
		{
			ID:      "policy-shipping",
			Title:   "Shipping Policy",
			Content: "Standard shipping takes 3-5 business days and is free on orders over $50. Express shipping (1-2 days) costs $14.99. Tracking codes start with TH- and are emailed once the order ships.",
			Tags:    "shipping delivery tracking",
		},
		{
			ID:      "policy-warranty",
			Title:   "Warranty",
			Content: "All components carry the manufacturer's warranty, minimum 12 months. Custom PC builds include 12 months of free labor on warranty repairs.",
			Tags:    "warranty repair",
		},
		{
			ID:      "guide-pc-compatibility",
			Title:   "PC Part Compatibility Basics",
			Content: "DDR5 memory requires a DDR5 motherboard; AMD AM5 and Intel LGA1700 boards support DDR5. Check PSU wattage against GPU requirements: an RTX 4070 class card needs at least 650W. Air coolers need case clearance, typically 160mm or more for tower coolers.",
			Tags:    "pc build compatibility guide",
		},
	}
	for _, doc := range docs {
		if _, err := b.Add(ctx, doc); err != nil {
			return err
		}
	}
	return nil
}
