package knowledge

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestBase(t *testing.T) *Base {
	t.Helper()
	base, err := Open(filepath.Join(t.TempDir(), "knowledge.db"))
	require.NoError(t, err)
	t.Cleanup(func() { base.Close() })
	require.NoError(t, base.Seed(context.Background()))
	return base
}

func TestSeedIsIdempotent(t *testing.T) {
	base := newTestBase(t)
	ctx := context.Background()

	require.NoError(t, base.Seed(ctx))

	docs, err := base.Search(ctx, "return refund policy", 10)
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestSearchRanksTitleMatchesFirst(t *testing.T) {
	base := newTestBase(t)
	ctx := context.Background()

	docs, err := base.Search(ctx, "what is the shipping policy?", 3)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	require.Equal(t, "policy-shipping", docs[0].ID)
}

func TestSearchNoMatches(t *testing.T) {
	base := newTestBase(t)

	docs, err := base.Search(context.Background(), "zebra trampoline", 3)
	require.NoError(t, err)
	require.Empty(t, docs)
}

func TestGetContextRespectsBudget(t *testing.T) {
	base := newTestBase(t)
	ctx := context.Background()

	full, err := base.GetContext(ctx, "shipping warranty returns", 1500)
	require.NoError(t, err)
	require.Contains(t, full, "## ")

	small, err := base.GetContext(ctx, "shipping warranty returns", 20)
	require.NoError(t, err)
	require.Less(t, len(small), len(full))
}

func TestGetContextEmptyForUnknownTopic(t *testing.T) {
	base := newTestBase(t)

	out, err := base.GetContext(context.Background(), "quantum basket weaving", 1500)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestAddAndRetrieve(t *testing.T) {
	base := newTestBase(t)
	ctx := context.Background()

	doc, err := base.Add(ctx, Doc{Title: "Price Match", Content: "We match prices from major retailers within 14 days of purchase.", Tags: "price match"})
	require.NoError(t, err)
	require.NotEmpty(t, doc.ID)

	docs, err := base.Search(ctx, "price match", 3)
	require.NoError(t, err)
	require.NotEmpty(t, docs)
	require.Equal(t, doc.ID, docs[0].ID)
}

func TestQueryTermsStripsShortAndPunctuation(t *testing.T) {
	terms := queryTerms("How long is the warranty, really?")
	require.Contains(t, terms, "warranty")
	require.Contains(t, terms, "really")
	for _, term := range terms {
		require.False(t, strings.ContainsAny(term, "?,."), "term %q not trimmed", term)
	}
}
