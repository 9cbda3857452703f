package aelf

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
	"google.golang.org/protobuf/encoding/protowire"
)

// LogDecoder turns a raw transaction log into named fields.
// indexed and nonIndexed are the base64 payloads reported by the node.
type LogDecoder func(name string, indexed []string, nonIndexed string) (map[string]any, error)

// Event names the deployment core reads.
const (
	EventProposalCreated  = "ProposalCreated"
	EventContractDeployed = "ContractDeployed"
)

var errMalformed = errors.New("malformed log payload")

// DecodeLog decodes the events a deployment produces. ProposalCreated yields
// "proposalId" (hex) and ContractDeployed yields "address" (base58) and
// "version". Other events are decoded as JSON when the payload is JSON and
// yield no fields otherwise.
func DecodeLog(name string, indexed []string, nonIndexed string) (map[string]any, error) {
	payloads := make([][]byte, 0, len(indexed)+1)
	for _, p := range append(append([]string(nil), indexed...), nonIndexed) {
		if p == "" {
			continue
		}
		b, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		payloads = append(payloads, b)
	}

	fields := map[string]any{}
	switch name {
	case EventProposalCreated:
		for _, p := range payloads {
			if err := walk(p, func(num protowire.Number, v []byte) error {
				if num != 1 {
					return nil
				}
				value, err := innerBytes(v)
				if err != nil {
					return err
				}
				fields["proposalId"] = hex.EncodeToString(value)
				return nil
			}); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
	case EventContractDeployed:
		for _, p := range payloads {
			if err := walk(p, func(num protowire.Number, v []byte) error {
				switch num {
				case 3:
					value, err := innerBytes(v)
					if err != nil {
						return err
					}
					fields["address"] = EncodeAddress(value)
				case 2:
					value, err := innerBytes(v)
					if err != nil {
						return err
					}
					fields["codeHash"] = hex.EncodeToString(value)
				}
				return nil
			}); err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
		}
	default:
		for _, p := range payloads {
			var m map[string]any
			if json.Unmarshal(p, &m) == nil {
				for k, v := range m {
					fields[k] = v
				}
			}
		}
	}
	return fields, nil
}

// walk calls fn for every length-delimited field of a protobuf message.
func walk(b []byte, fn func(protowire.Number, []byte) error) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return errMalformed
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return errMalformed
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return errMalformed
		}
		if err := fn(num, v); err != nil {
			return err
		}
		b = b[n:]
	}
	return nil
}

// innerBytes unwraps the single `bytes value = 1` field of aelf.Hash and aelf.Address.
func innerBytes(msg []byte) ([]byte, error) {
	var out []byte
	err := walk(msg, func(num protowire.Number, v []byte) error {
		if num == 1 {
			out = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		return nil, errMalformed
	}
	return out, nil
}

// EncodeAddress renders raw address bytes in aelf's base58check form.
func EncodeAddress(value []byte) string {
	first := sha256.Sum256(value)
	second := sha256.Sum256(first[:])
	return base58.Encode(append(append([]byte(nil), value...), second[:4]...))
}
