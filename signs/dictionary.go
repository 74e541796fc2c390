// Package signs serves the static hieroglyph sign list: lookup by Gardiner
// code, category listing, free-text and regex search, and a naive word by
// word translator.
package signs

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"sort"
	"strings"
	"unicode"
)

//go:embed signs.json
var embedded []byte

// MaxPatternLen caps the length of a SearchRegex pattern.
const MaxPatternLen = 100

var (
	ErrEmptyQuery      = errors.New("search query is required")
	ErrPatternTooLong  = fmt.Errorf("pattern longer than %d characters", MaxPatternLen)
	ErrInvalidPattern  = errors.New("invalid pattern")
	ErrEmptyDictionary = errors.New("sign dictionary is empty")
)

type Sign struct {
	Code            string `json:"code"`
	Glyph           string `json:"glyph"`
	Transliteration string `json:"transliteration"`
	Meaning         string `json:"meaning"`
	Category        string `json:"category"`
	Phonetic        string `json:"phonetic"`
}

type entry struct {
	sign     Sign
	code     string
	translit string
	meaning  string
	words    []string
}

// Dictionary is read-only after construction and safe for concurrent use.
type Dictionary struct {
	entries []entry
	byCode  map[string]int
}

// Default returns the dictionary compiled into the binary.
func Default() (*Dictionary, error) {
	return Parse(embedded)
}

// Open loads path, or the embedded list when path is empty.
func Open(path string) (*Dictionary, error) {
	if path == "" {
		return Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open sign list: %w", err)
	}
	defer f.Close()
	raw, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read sign list: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Dictionary, error) {
	var list []Sign
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, fmt.Errorf("decode sign list: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrEmptyDictionary
	}
	d := &Dictionary{
		entries: make([]entry, 0, len(list)),
		byCode:  make(map[string]int, len(list)),
	}
	for _, s := range list {
		code := strings.ToLower(s.Code)
		if code == "" {
			return nil, fmt.Errorf("sign without code: %+v", s)
		}
		if _, dup := d.byCode[code]; dup {
			return nil, fmt.Errorf("duplicate sign code %q", s.Code)
		}
		meaning := Fold(s.Meaning)
		d.byCode[code] = len(d.entries)
		d.entries = append(d.entries, entry{
			sign:     s,
			code:     code,
			translit: Fold(s.Transliteration),
			meaning:  meaning,
			words:    splitWords(meaning),
		})
	}
	return d, nil
}

func (d *Dictionary) All() []Sign {
	out := make([]Sign, len(d.entries))
	for i, e := range d.entries {
		out[i] = e.sign
	}
	return out
}

// ByCategory returns the signs of a Gardiner category, case-insensitively.
func (d *Dictionary) ByCategory(category string) []Sign {
	var out []Sign
	for _, e := range d.entries {
		if strings.EqualFold(e.sign.Category, category) {
			out = append(out, e.sign)
		}
	}
	return out
}

func (d *Dictionary) Get(code string) (Sign, bool) {
	i, ok := d.byCode[strings.ToLower(strings.TrimSpace(code))]
	if !ok {
		return Sign{}, false
	}
	return d.entries[i].sign, true
}

// Search matches query against code, transliteration and meaning ignoring
// case and diacritics. Exact code and transliteration hits rank first.
func (d *Dictionary) Search(query string, limit int) ([]Sign, error) {
	q := Fold(query)
	if q == "" {
		return nil, ErrEmptyQuery
	}
	type hit struct {
		rank int
		idx  int
	}
	var hits []hit
	for i, e := range d.entries {
		rank := -1
		switch {
		case e.code == q:
			rank = 0
		case e.translit == q:
			rank = 1
		case strings.HasPrefix(e.translit, q), strings.HasPrefix(e.meaning, q):
			rank = 2
		case strings.Contains(e.code, q), strings.Contains(e.translit, q), strings.Contains(e.meaning, q):
			rank = 3
		}
		if rank >= 0 {
			hits = append(hits, hit{rank: rank, idx: i})
		}
	}
	sort.SliceStable(hits, func(a, b int) bool { return hits[a].rank < hits[b].rank })

	out := make([]Sign, 0, len(hits))
	for _, h := range hits {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, d.entries[h.idx].sign)
	}
	return out, nil
}

// SearchRegex matches a case-insensitive pattern against code,
// transliteration and meaning.
func (d *Dictionary) SearchRegex(pattern string, limit int) ([]Sign, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, ErrEmptyQuery
	}
	if len(pattern) > MaxPatternLen {
		return nil, ErrPatternTooLong
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	out := []Sign{}
	for _, e := range d.entries {
		if limit > 0 && len(out) == limit {
			break
		}
		s := e.sign
		if re.MatchString(s.Code) || re.MatchString(s.Transliteration) || re.MatchString(s.Meaning) ||
			re.MatchString(e.translit) || re.MatchString(e.meaning) {
			out = append(out, s)
		}
	}
	return out, nil
}

// Token is one word of translated text. Sign is nil when nothing matched.
type Token struct {
	Word string `json:"word"`
	Sign *Sign  `json:"sign,omitempty"`
}

// Translate maps every word of text to the best matching sign: an exact
// transliteration first, then a whole word of a meaning.
func (d *Dictionary) Translate(text string) []Token {
	words := strings.FieldsFunc(text, notWordRune)
	out := make([]Token, 0, len(words))
	for _, w := range words {
		tok := Token{Word: w}
		if s, ok := d.bestMatch(Fold(w)); ok {
			tok.Sign = &s
		}
		out = append(out, tok)
	}
	return out
}

func (d *Dictionary) bestMatch(word string) (Sign, bool) {
	if word == "" {
		return Sign{}, false
	}
	for _, e := range d.entries {
		if e.translit == word {
			return e.sign, true
		}
	}
	for _, e := range d.entries {
		for _, mw := range e.words {
			if mw == word {
				return e.sign, true
			}
		}
	}
	return Sign{}, false
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, notWordRune)
}

func notWordRune(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
