package bip32

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
)

var (
	ErrInvalidSeed = errors.New("invalid bip-32 seed length")
	ErrInvalidPath = errors.New("invalid derivation path")
)

// Path 已解析的派生路径, 硬化索引已加上 HardenedKeyStart
type Path []uint32

// ParsePath 解析 m/44'/60'/0'/0/0 形式的路径, 硬化标记可用 ' h 或 H
func ParsePath(s string) (Path, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "m" {
		return Path{}, nil
	}
	if !strings.HasPrefix(s, "m/") {
		return nil, fmt.Errorf("%w: %q must start with m/", ErrInvalidPath, s)
	}

	segments := strings.Split(s[2:], "/")
	path := make(Path, 0, len(segments))
	for _, seg := range segments {
		hardened := strings.HasSuffix(seg, "'") || strings.HasSuffix(seg, "h") || strings.HasSuffix(seg, "H")
		if hardened {
			seg = seg[:len(seg)-1]
		}
		v, err := strconv.ParseUint(seg, 10, 32)
		if err != nil || v >= hdkeychain.HardenedKeyStart {
			return nil, fmt.Errorf("%w: segment %q", ErrInvalidPath, seg)
		}
		index := uint32(v)
		if hardened {
			index += hdkeychain.HardenedKeyStart
		}
		path = append(path, index)
	}
	return path, nil
}

func (p Path) String() string {
	var sb strings.Builder
	sb.WriteString("m")
	for _, index := range p {
		sb.WriteString("/")
		if index >= hdkeychain.HardenedKeyStart {
			sb.WriteString(strconv.FormatUint(uint64(index-hdkeychain.HardenedKeyStart), 10))
			sb.WriteString("'")
		} else {
			sb.WriteString(strconv.FormatUint(uint64(index), 10))
		}
	}
	return sb.String()
}
