package textmatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{input: "  EVN  Electricity,  Bill!! ", want: "evn electricity bill"},
		{input: "Chợ Bến Thành - rau", want: "chợ bến thành rau"},
		{input: "ＡＢＣ　Mart", want: "abc mart"},
		{input: "Metro#123/HCM", want: "metro 123 hcm"},
		{input: "焼肉・さくら", want: "焼肉 さくら"},
		{input: "...", want: ""},
		{input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestSignificantTokens(t *testing.T) {
	got := SignificantTokens("PAY to Co. Metro 2024 HCM", 2)
	assert.Equal(t, []string{"pay", "metro", "hcm"}, got)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("metro", "metro"))
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("abc", "xyz"))
	assert.Equal(t, 0.0, Similarity("ab", ""))
	assert.InDelta(t, 0.8, Similarity("metro", "metra"), 1e-9)

	pairs := [][2]string{
		{"kitten", "sitting"},
		{"chợ lớn", "cho lon"},
		{"evn hcmc", "evn"},
	}
	for _, p := range pairs {
		assert.Equal(t, Similarity(p[0], p[1]), Similarity(p[1], p[0]), "symmetry for %q/%q", p[0], p[1])
		s := Similarity(p[0], p[1])
		assert.GreaterOrEqual(t, s, 0.0)
		assert.LessOrEqual(t, s, 1.0)
	}
}

func TestDistance(t *testing.T) {
	assert.Equal(t, 3, Distance("kitten", "sitting"))
	assert.Equal(t, 0, Distance("phở", "phở"))
	assert.Equal(t, 1, Distance("phở", "pho"))
	assert.Equal(t, 4, Distance("", "bánh"))
	assert.Equal(t, 2, Distance("さくら", "焼肉さくら"))
}

func TestNormalizedSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, NormalizedSimilarity("METRO, HCM", "metro hcm"))
}

func TestContains(t *testing.T) {
	tests := []struct {
		text string
		sub  string
		want bool
	}{
		{text: "evn hcmc electric may", sub: "evn hcmc", want: true},
		{text: "metromart hcm", sub: "metro", want: true},
		{text: "焼肉さくら 領収書", sub: "さくら", want: true},
		{text: "hydroelectric bill may", sub: "electric", want: true},
		{text: "tiền điện tháng 5", sub: "điện", want: true},
		{text: "banana stand", sub: "kiwi", want: false},
		{text: "metro", sub: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.text+"/"+tt.sub, func(t *testing.T) {
			assert.Equal(t, tt.want, Contains(tt.text, tt.sub))
		})
	}
}
