package ingest

import (
	"bytes"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Minimum chardet confidence before the detection result is tried ahead of
// the fixed fallback chain.
const detectConfidence = 80

type decoderCandidate struct {
	name string
	enc  encoding.Encoding
}

// fallbackChain is the fixed ordered list of encodings tried in sequence,
// first success wins. Salon exports are usually CP932; the UTF-8-with-BOM
// variant shows up after an Excel re-save.
var fallbackChain = []decoderCandidate{
	{"utf-8-sig", unicode.UTF8BOM},
	{"shift_jis", japanese.ShiftJIS},
	{"euc-jp", japanese.EUCJP},
	{"utf-8", unicode.UTF8},
}

func decoderForCharset(charset string) (decoderCandidate, bool) {
	switch charset {
	case "UTF-8":
		return decoderCandidate{"utf-8", unicode.UTF8}, true
	case "Shift_JIS", "windows-31j":
		return decoderCandidate{"shift_jis", japanese.ShiftJIS}, true
	case "EUC-JP":
		return decoderCandidate{"euc-jp", japanese.EUCJP}, true
	case "ISO-2022-JP":
		return decoderCandidate{"iso-2022-jp", japanese.ISO2022JP}, true
	case "UTF-16LE":
		return decoderCandidate{"utf-16le", unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)}, true
	case "UTF-16BE":
		return decoderCandidate{"utf-16be", unicode.UTF16(unicode.BigEndian, unicode.UseBOM)}, true
	}
	return decoderCandidate{}, false
}

// decodeToUTF8 resolves the encoding of one uploaded file: the statistically
// detected charset is tried first when chardet is confident about it, then
// the fallback chain. A candidate is accepted only when its output is valid
// UTF-8 with no replacement runes, since the Japanese decoders substitute
// U+FFFD instead of failing on invalid input.
func decodeToUTF8(file string, data []byte) ([]byte, string, error) {
	var tried []string
	seen := make(map[string]bool)

	try := func(cand decoderCandidate) ([]byte, bool) {
		if seen[cand.name] {
			return nil, false
		}
		seen[cand.name] = true
		tried = append(tried, cand.name)

		out, _, err := transform.Bytes(cand.enc.NewDecoder(), data)
		if err != nil {
			return nil, false
		}
		if !utf8.Valid(out) || bytes.ContainsRune(out, utf8.RuneError) {
			return nil, false
		}
		return out, true
	}

	detector := chardet.NewTextDetector()
	if res, err := detector.DetectBest(data); err == nil && res.Confidence >= detectConfidence {
		if cand, ok := decoderForCharset(res.Charset); ok {
			if out, ok := try(cand); ok {
				return out, cand.name, nil
			}
		}
	}

	for _, cand := range fallbackChain {
		if out, ok := try(cand); ok {
			return out, cand.name, nil
		}
	}

	return nil, "", &EncodingError{File: file, Tried: tried}
}
