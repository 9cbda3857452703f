// Package translate converts every error raised during a deployment into the
// user-facing failure taxonomy.
package translate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/deploykit/pkg/domain"
	"github.com/aretw0/deploykit/pkg/poll"
)

// TxLinker builds an explorer URL for a transaction id.
type TxLinker interface {
	TxURL(id string) string
}

// Translator is the single catch boundary of the deployment core.
type Translator struct {
	linker   TxLinker
	issueURL string
}

// Option configures a Translator.
type Option func(*Translator)

// WithLinker adds explorer links to display strings.
func WithLinker(l TxLinker) Option {
	return func(t *Translator) {
		t.linker = l
	}
}

// WithIssueURL is the tracker users are pointed at when the node returns no transaction.
func WithIssueURL(url string) Option {
	return func(t *Translator) {
		t.issueURL = url
	}
}

// New creates a translator.
func New(opts ...Option) *Translator {
	t := &Translator{}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

var knownFailures = []struct {
	pattern *regexp.Regexp
	reason  string
}{
	{regexp.MustCompile(`(?i)insufficient|not enough|fee.*exceed`), "Insufficient balance to pay the transaction fee. Request test tokens with the faucet command."},
	{regexp.MustCompile(`(?i)no permission|unauthori[sz]ed|not authorized|sender .*not allowed`), "The wallet has no permission to deploy this contract."},
	{regexp.MustCompile(`(?i)(code|contract).*(already|duplicate)|same code`), "This program has already been deployed."},
	{regexp.MustCompile(`(?i)ref(erence)?\s*block.*(expired|invalid|too old)|expired ref`), "The reference block of the transaction expired. Retry the deployment."},
	{regexp.MustCompile(`(?i)(invalid|incorrect|bad) signature|signature .*invalid|verify.*signature`), "The transaction signature is invalid."},
	{regexp.MustCompile(`(?i)(size|length).*(exceed|too large|limit)|too large`), "The program exceeds the maximum contract size."},
}

// Translate maps err to a failure. It is total: a nil error yields nil and
// every other error yields exactly one failure.
func (t *Translator) Translate(err error) *domain.Failure {
	if err == nil {
		return nil
	}

	var f *domain.Failure
	if errors.As(err, &f) {
		return f
	}

	kind, txID := domain.KindTransport, ""
	var de *domain.Error
	if errors.As(err, &de) {
		kind, txID = de.Kind, de.TransactionID
	}

	switch {
	case errors.Is(err, domain.ErrCancelled), errors.Is(err, poll.ErrCancelled), errors.Is(err, context.Canceled):
		kind = domain.KindCancelled
	case errors.Is(err, poll.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		kind = domain.KindTimeout
	case de == nil:
		var ce *domain.ChainError
		if errors.As(err, &ce) && (ce.Category == domain.CategoryValidation || ce.Category == domain.CategoryRejected) {
			kind = domain.KindDeploymentRejected
		}
	}

	reason := t.reason(kind, err, de)
	return &domain.Failure{
		Kind:          kind,
		Reason:        reason,
		TransactionID: txID,
		Display:       t.display(reason, txID),
	}
}

func (t *Translator) reason(kind domain.Kind, err error, de *domain.Error) string {
	var ce *domain.ChainError
	if errors.As(err, &ce) && kind != domain.KindCancelled && kind != domain.KindTimeout {
		return humanize(ce.Message)
	}

	switch kind {
	case domain.KindCancelled:
		return "Deployment cancelled."
	case domain.KindTimeout:
		return "Gave up waiting for the chain. The deployment may still complete; check the transaction on the explorer."
	case domain.KindNotBuilt:
		return "The program is not built."
	case domain.KindProposalExpired:
		return "Contract not deployed after proposal expiry."
	case domain.KindDeploymentRejected:
		if de != nil && de.Err == nil {
			msg := "The node returned no transaction id. Check the node logs"
			if t.issueURL != "" {
				return msg + ". If the problem persists, you can report the issue in " + t.issueURL + "."
			}
			return msg + "."
		}
	case domain.KindTransport:
		if de != nil && de.Err != nil {
			return "Network error: " + de.Err.Error()
		}
		return "Network error: " + err.Error()
	}

	if de != nil && de.Err != nil {
		return sentence(de.Err.Error())
	}
	return sentence(err.Error())
}

func (t *Translator) display(reason, txID string) string {
	if txID == "" {
		return reason
	}
	if t.linker == nil {
		return fmt.Sprintf("%s (transaction %s)", reason, txID)
	}
	return fmt.Sprintf("%s (transaction %s: %s)", reason, txID, t.linker.TxURL(txID))
}

// humanize reduces a raw chain message to a known reason, falling back to the
// chain's own first line.
func humanize(msg string) string {
	for _, k := range knownFailures {
		if k.pattern.MatchString(msg) {
			return k.reason
		}
	}
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "The chain rejected the transaction."
	}
	return sentence(msg)
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[n:]
	if !strings.HasSuffix(s, ".") {
		s += "."
	}
	return s
}
