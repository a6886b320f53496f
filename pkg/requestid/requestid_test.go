package requestid

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"

	"vault-bridge/pkg/errno"
)

const sender = "3si68i2yXFAGy5k8BpqGpPJR5wE27id1Jenx3uN8GCws"

func TestPackedLayout(t *testing.T) {
	r := Request{
		Sender:     "ab",
		Tx:         []byte{0x02, 0xff},
		SLIP44:     60,
		KeyVersion: 1,
		Path:       "p",
		Algo:       "A",
		Dest:       "d",
		Params:     "x",
	}
	want := []byte{
		'a', 'b',
		0x02, 0xff,
		0, 0, 0, 60,
		0, 0, 0, 1,
		'p', 'A', 'd', 'x',
	}
	assert.Equal(t, want, r.Packed())
	assert.Equal(t, crypto.Keccak256(want), r.ID().Bytes())
}

func TestDeriveMatchesRequest(t *testing.T) {
	tx := []byte{0x02, 0xc0}
	r := Ethereum(sender, tx, "root")
	assert.Equal(t, r.ID(), Derive(sender, tx, 60, 0, "root", "ECDSA", "ethereum", ""))
}

func TestDeriveDeterministicAndSensitive(t *testing.T) {
	tx := []byte{0x02, 0xc8, 0x01, 0x02}
	base := Ethereum(sender, tx, "root")
	assert.Equal(t, base.ID(), base.ID())

	mutations := map[string]Request{}

	r := base
	r.Tx = []byte{0x02, 0xc8, 0x01, 0x03}
	mutations["tx byte"] = r

	r = base
	r.Path = "root2"
	mutations["path"] = r

	r = base
	r.SLIP44 = 61
	mutations["slip44"] = r

	r = base
	r.KeyVersion = 1
	mutations["key version"] = r

	r = base
	r.Sender = "4uvZW8K4g4jBg7dzPNbb9XDxJLFBK7V6iC76uofmYvEU"
	mutations["sender"] = r

	r = base
	r.Params = "{}"
	mutations["params"] = r

	for name, m := range mutations {
		assert.NotEqual(t, base.ID(), m.ID(), name)
	}
}

func TestIDHex(t *testing.T) {
	var id ID
	id[31] = 0xab
	assert.Equal(t, "0x00000000000000000000000000000000000000000000000000000000000000ab", id.Hex())
}

func TestParseID(t *testing.T) {
	id := Ethereum(sender, []byte{0x02}, "root").ID()

	parsed, err := ParseID(id.Hex())
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)

	parsed, err = ParseID(id.Hex()[2:])
	assert.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseID("0x1234")
	assert.Error(t, err)
	_, err = ParseID("zz")
	assert.Error(t, err)
}

func TestSigningParamsValidate(t *testing.T) {
	ok := EthereumSigning("root")
	assert.NoError(t, ok.Validate(DefaultLimits))
	assert.Equal(t, Ethereum(sender, []byte{0x02}, "root"), ok.Request(sender, []byte{0x02}, SLIP44Ethereum))

	tests := []struct {
		name   string
		mutate func(p *SigningParams)
		want   error
	}{
		{"empty path", func(p *SigningParams) { p.Path = "" }, errno.ErrEmptyField},
		{"empty algo", func(p *SigningParams) { p.Algo = "" }, errno.ErrEmptyField},
		{"empty dest", func(p *SigningParams) { p.Dest = "" }, errno.ErrEmptyField},
		{"long path", func(p *SigningParams) { p.Path = strings.Repeat("a", 257) }, errno.ErrFieldTooLong},
		{"long algo", func(p *SigningParams) { p.Algo = strings.Repeat("a", 65) }, errno.ErrFieldTooLong},
		{"long params", func(p *SigningParams) { p.Params = strings.Repeat("a", 1025) }, errno.ErrFieldTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ok
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(DefaultLimits), tt.want)
		})
	}

	edge := ok
	edge.Path = strings.Repeat("a", 256)
	edge.Params = strings.Repeat("a", 1024)
	assert.NoError(t, edge.Validate(DefaultLimits))
}
