package aelf

import (
	"net/url"
	"strings"
)

// Explorer builds links to the aelf block explorer.
type Explorer struct {
	URL     string
	Cluster string
}

// NewExplorer returns links for the given explorer; empty values use the testnet defaults.
func NewExplorer(base, cluster string) Explorer {
	if base == "" {
		base = DefaultExplorerURL
	}
	if cluster == "" {
		cluster = DefaultCluster
	}
	return Explorer{URL: strings.TrimRight(base, "/"), Cluster: cluster}
}

// AddressURL links a contract or wallet address.
func (e Explorer) AddressURL(address string) string {
	return e.link("address", address)
}

// TxURL links a transaction.
func (e Explorer) TxURL(id string) string {
	return e.link("tx", id)
}

func (e Explorer) link(kind, value string) string {
	u := e.URL + "/" + kind + "/" + url.PathEscape(value)
	if e.Cluster != "" {
		u += "?cluster=" + url.QueryEscape(e.Cluster)
	}
	return u
}
