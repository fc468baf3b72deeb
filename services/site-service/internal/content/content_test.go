package content

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/claryon/claryon-site/services/site-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func TestIsPublic(t *testing.T) {
	today := time.Date(2025, 6, 1, 23, 30, 0, 0, time.UTC)
	cases := []struct {
		name string
		post model.Post
		want bool
	}{
		{"published past", model.Post{Status: model.PostPublished, PublicationDate: date(2025, 5, 1)}, true},
		{"published today", model.Post{Status: model.PostPublished, PublicationDate: date(2025, 6, 1)}, true},
		{"published future", model.Post{Status: model.PostPublished, PublicationDate: date(2025, 6, 2)}, false},
		{"published undated", model.Post{Status: model.PostPublished}, false},
		{"draft", model.Post{Status: model.PostDraft, PublicationDate: date(2025, 5, 1)}, false},
		{"archived", model.Post{Status: model.PostArchived, PublicationDate: date(2025, 5, 1)}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsPublic(tc.post, today))
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "entering-the-eu-market", Slugify("  Entering the EU Market! "))
	assert.Equal(t, "hr-tips-2025", Slugify("HR -- tips   2025"))
	assert.Equal(t, "visa-faq", Slugify("Visa_FAQ"))
	assert.True(t, ValidSlug(Slugify("Entering the EU Market")))
}

func TestValidSlug(t *testing.T) {
	assert.True(t, ValidSlug("abc"))
	assert.True(t, ValidSlug("market-entry-101"))
	assert.False(t, ValidSlug("ab"))
	assert.False(t, ValidSlug("Market-Entry"))
	assert.False(t, ValidSlug("market--entry"))
	assert.False(t, ValidSlug("-market"))
}

func TestTagsUnmarshal(t *testing.T) {
	var payload struct {
		Tags Tags `json:"tags"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"tags":"hr, visa ,,hr"}`), &payload))
	assert.Equal(t, Tags{"hr", "visa"}, payload.Tags)

	require.NoError(t, json.Unmarshal([]byte(`{"tags":["legal"," immigration "]}`), &payload))
	assert.Equal(t, Tags{"legal", "immigration"}, payload.Tags)

	assert.Error(t, json.Unmarshal([]byte(`{"tags":42}`), &payload))
}

func TestBodyRoundTrip(t *testing.T) {
	body, err := EncodeBody(model.BodyMarkdown, "# Hello")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"markdown","text":"# Hello"}`, string(body))
	assert.Equal(t, "# Hello", BodyText(body))

	html, err := EncodeBody(model.BodyHTML, "<p>Hi</p>")
	require.NoError(t, err)
	assert.Equal(t, "<p>Hi</p>", BodyText(html))

	_, err = EncodeBody("rtf", "x")
	assert.Error(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-06-01")
	require.NoError(t, err)
	assert.Equal(t, *date(2025, 6, 1), *d)

	d, err = ParseDate("")
	require.NoError(t, err)
	assert.Nil(t, d)

	_, err = ParseDate("01/06/2025")
	assert.Error(t, err)
}
