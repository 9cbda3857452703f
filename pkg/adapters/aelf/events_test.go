package aelf_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/aretw0/deploykit/pkg/adapters/aelf"
	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"
)

func wrapped(field protowire.Number, value []byte) []byte {
	inner := protowire.AppendTag(nil, 1, protowire.BytesType)
	inner = protowire.AppendBytes(inner, value)
	out := protowire.AppendTag(nil, field, protowire.BytesType)
	return protowire.AppendBytes(out, inner)
}

func b64(b []byte) string { return base64.StdEncoding.EncodeToString(b) }

func TestDecodeLog_ContractDeployed(t *testing.T) {
	addr := []byte{0x10, 0x20, 0x30}
	nonIndexed := wrapped(3, addr)
	nonIndexed = protowire.AppendTag(nonIndexed, 4, protowire.VarintType)
	nonIndexed = protowire.AppendVarint(nonIndexed, 1)

	fields, err := aelf.DecodeLog(aelf.EventContractDeployed,
		[]string{b64(wrapped(2, []byte{0xaa}))}, b64(nonIndexed))

	require.NoError(t, err)
	assert.Equal(t, aelf.EncodeAddress(addr), fields["address"])
	assert.Equal(t, "aa", fields["codeHash"])
}

func TestDecodeLog_JSONFallback(t *testing.T) {
	fields, err := aelf.DecodeLog("Custom", nil, b64([]byte(`{"proposalId":"p-9"}`)))
	require.NoError(t, err)
	assert.Equal(t, "p-9", fields["proposalId"])
}

func TestDecodeLog_Malformed(t *testing.T) {
	_, err := aelf.DecodeLog(aelf.EventProposalCreated, nil, b64([]byte{0x0a, 0x05, 0x01}))
	assert.Error(t, err)

	_, err = aelf.DecodeLog(aelf.EventProposalCreated, nil, "%%%")
	assert.Error(t, err)
}

func TestEncodeAddress(t *testing.T) {
	a := aelf.EncodeAddress([]byte{0x00, 0x01, 0x02})
	assert.True(t, strings.HasPrefix(a, "1"), "leading zero bytes map to '1'")
	for _, r := range a {
		assert.NotContains(t, "0OIl", string(r))
	}
	assert.Equal(t, a, aelf.EncodeAddress([]byte{0x00, 0x01, 0x02}))
	assert.NotEqual(t, a, aelf.EncodeAddress([]byte{0x00, 0x01, 0x03}))

	raw, err := base58.Decode(a)
	require.NoError(t, err)
	require.Len(t, raw, 7, "value plus a four byte checksum")
	assert.Equal(t, []byte{0x00, 0x01, 0x02}, raw[:3])
}
