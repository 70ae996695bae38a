// Package kana folds hiragana, halfwidth katakana and Hepburn romaji into a
// canonical katakana form so that different renderings of the same name
// compare equal.
package kana

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Fold returns the canonical katakana form of s. NFKC takes care of
// halfwidth katakana, fullwidth ASCII and combining sound marks before the
// script folding runs.
func Fold(s string) string {
	s = norm.NFKC.String(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))

	var ascii []byte
	flush := func() {
		if len(ascii) > 0 {
			b.WriteString(romajiToKatakana(string(ascii)))
			ascii = ascii[:0]
		}
	}

	for _, r := range s {
		switch {
		case r < 128:
			if r >= 'A' && r <= 'Z' {
				r += 'a' - 'A'
			}
			ascii = append(ascii, byte(r))
		case r >= 0x3041 && r <= 0x3096:
			// Hiragana block maps onto katakana at a fixed offset.
			flush()
			b.WriteRune(r + 0x60)
		default:
			flush()
			b.WriteRune(r)
		}
	}
	flush()

	return b.String()
}

// Equal reports whether two renderings fold to the same canonical form.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}

var kanaTable = map[string]string{
	"a": "ア", "i": "イ", "u": "ウ", "e": "エ", "o": "オ",
	"ka": "カ", "ki": "キ", "ku": "ク", "ke": "ケ", "ko": "コ",
	"ga": "ガ", "gi": "ギ", "gu": "グ", "ge": "ゲ", "go": "ゴ",
	"sa": "サ", "si": "シ", "su": "ス", "se": "セ", "so": "ソ",
	"za": "ザ", "zi": "ジ", "zu": "ズ", "ze": "ゼ", "zo": "ゾ",
	"ta": "タ", "ti": "チ", "tu": "ツ", "te": "テ", "to": "ト",
	"da": "ダ", "di": "ヂ", "du": "ヅ", "de": "デ", "do": "ド",
	"na": "ナ", "ni": "ニ", "nu": "ヌ", "ne": "ネ", "no": "ノ",
	"ha": "ハ", "hi": "ヒ", "hu": "フ", "he": "ヘ", "ho": "ホ",
	"ba": "バ", "bi": "ビ", "bu": "ブ", "be": "ベ", "bo": "ボ",
	"pa": "パ", "pi": "ピ", "pu": "プ", "pe": "ペ", "po": "ポ",
	"ma": "マ", "mi": "ミ", "mu": "ム", "me": "メ", "mo": "モ",
	"ya": "ヤ", "yu": "ユ", "yo": "ヨ",
	"ra": "ラ", "ri": "リ", "ru": "ル", "re": "レ", "ro": "ロ",
	"wa": "ワ", "wo": "ヲ",
	"fa": "ファ", "fi": "フィ", "fu": "フ", "fe": "フェ", "fo": "フォ",
	"ja": "ジャ", "ji": "ジ", "ju": "ジュ", "je": "ジェ", "jo": "ジョ",
	"shi": "シ", "sha": "シャ", "shu": "シュ", "she": "シェ", "sho": "ショ",
	"chi": "チ", "cha": "チャ", "chu": "チュ", "che": "チェ", "cho": "チョ",
	"tsu": "ツ",
	"kya": "キャ", "kyu": "キュ", "kyo": "キョ",
	"gya": "ギャ", "gyu": "ギュ", "gyo": "ギョ",
	"nya": "ニャ", "nyu": "ニュ", "nyo": "ニョ",
	"hya": "ヒャ", "hyu": "ヒュ", "hyo": "ヒョ",
	"bya": "ビャ", "byu": "ビュ", "byo": "ビョ",
	"pya": "ピャ", "pyu": "ピュ", "pyo": "ピョ",
	"mya": "ミャ", "myu": "ミュ", "myo": "ミョ",
	"rya": "リャ", "ryu": "リュ", "ryo": "リョ",
	"vu": "ヴ", "va": "ヴァ", "vi": "ヴィ", "ve": "ヴェ", "vo": "ヴォ",
	"-": "ー",
}

func isVowel(c byte) bool {
	switch c {
	case 'a', 'i', 'u', 'e', 'o':
		return true
	}
	return false
}

func isConsonant(c byte) bool {
	return c >= 'a' && c <= 'z' && !isVowel(c)
}

// romajiToKatakana converts a lowercase ASCII run. Unconvertible characters
// pass through untouched.
func romajiToKatakana(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)

	for i := 0; i < len(s); {
		c := s[i]

		// Syllabic n: before a consonant, an apostrophe or at the end.
		if c == 'n' {
			if i+1 == len(s) || s[i+1] == '\'' || (!isVowel(s[i+1]) && s[i+1] != 'y') {
				b.WriteString("ン")
				i++
				if i < len(s) && s[i] == '\'' {
					i++
				}
				continue
			}
		}

		// Sokuon: doubled consonant, plus the t in "tch".
		if isConsonant(c) && c != 'n' && i+1 < len(s) {
			if s[i+1] == c || (c == 't' && strings.HasPrefix(s[i+1:], "ch")) {
				b.WriteString("ッ")
				i++
				continue
			}
		}

		matched := false
		for n := 3; n >= 1; n-- {
			if i+n > len(s) {
				continue
			}
			if kana, ok := kanaTable[s[i:i+n]]; ok {
				b.WriteString(kana)
				i += n
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(c)
			i++
		}
	}

	return b.String()
}
