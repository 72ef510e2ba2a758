package utils

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// utf8BOM UTF-8 BOM，Excel 另存为 CSV 时常带
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrUndecodable 所有候选编码均解码失败
var ErrUndecodable = errors.New("无法识别文件编码")

// DecodeText 依次尝试 UTF-8(含 BOM)、GBK、GB18030、Latin-1 解码
// 返回 UTF-8 文本和命中的编码名
func DecodeText(data []byte) (string, string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		return string(data[len(utf8BOM):]), "utf-8-sig", nil
	}
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}

	candidates := []struct {
		name string
		enc  encoding.Encoding
	}{
		{"gbk", simplifiedchinese.GBK},
		{"gb18030", simplifiedchinese.GB18030},
	}
	for _, c := range candidates {
		if out, err := decodeStrict(c.enc, data); err == nil {
			return out, c.name, nil
		}
	}

	// Latin-1 可以解码任意字节序列
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", "", ErrUndecodable
	}
	return string(out), "latin-1", nil
}

// decodeStrict 解码后出现替换字符视为失败
func decodeStrict(enc encoding.Encoding, data []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	if bytes.ContainsRune(out, utf8.RuneError) {
		return "", ErrUndecodable
	}
	return string(out), nil
}
