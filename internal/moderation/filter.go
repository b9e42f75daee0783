package moderation

import (
	"regexp"
)

// Redaction replaces every denylisted term
const Redaction = "[redacted]"

// DefaultDenylist is the fixed list of prohibited terms, applied in this order. Keep
// "hijodeputa" ahead of "puta" so the compound is redacted whole.
var DefaultDenylist = []string{
	"mierda", "mrd", "ctm", "hp", "hijodeputa", "puta", "coño", "joder",
	"cabron", "cabrón", "imbecil", "imbécil", "idiota", "estupido", "estúpido",
	"pendejo", "culero", "mamada", "verga", "pinche", "chingada", "chingar",
	"puto", "marica", "maricón",
}

// Result is the outcome of moderating one text
type Result struct {
	Text        string
	WasModified bool
}

// Filter redacts denylisted substrings. Matching is case-insensitive and not word-bounded, so
// a term also matches inside longer words.
type Filter struct {
	patterns []*regexp.Regexp
}

// NewFilter compiles terms into a Filter. Terms are matched literally.
func NewFilter(terms []string) *Filter {
	patterns := make([]*regexp.Regexp, 0, len(terms))
	for _, term := range terms {
		if term == "" {
			continue
		}
		patterns = append(patterns, regexp.MustCompile("(?i)"+regexp.QuoteMeta(term)))
	}
	return &Filter{patterns: patterns}
}

// Default returns a Filter over DefaultDenylist
func Default() *Filter {
	return NewFilter(DefaultDenylist)
}

// Moderate replaces every occurrence of every term, in list order
func (f *Filter) Moderate(text string) Result {
	res := Result{Text: text}
	for _, re := range f.patterns {
		if re.MatchString(res.Text) {
			res.Text = re.ReplaceAllLiteralString(res.Text, Redaction)
			res.WasModified = true
		}
	}
	return res
}

// PostResult is the outcome of moderating a post's title and content independently
type PostResult struct {
	Title   Result
	Content Result
}

// Modified reports whether either field changed
func (r PostResult) Modified() bool {
	return r.Title.WasModified || r.Content.WasModified
}

// ModeratePost moderates title and content independently
func (f *Filter) ModeratePost(title, content string) PostResult {
	return PostResult{Title: f.Moderate(title), Content: f.Moderate(content)}
}
