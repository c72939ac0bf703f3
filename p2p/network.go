package p2p

import (
	"errors"

	"github.com/libp2p/go-libp2p/core/peer"
)

// NOTE: Every time we add a new long-running network, it has to be added here.
const (
	// DefaultNetwork is the default network of the current build.
	DefaultNetwork = Mainnet
	// Mainnet is the main production network.
	Mainnet Network = "celestia"
	// Arabica testnet. See: celestiaorg/networks.
	Arabica Network = "arabica-11"
	// Mocha testnet. See: celestiaorg/networks.
	Mocha Network = "mocha-4"
)

// Network selects the chain a node joins: it determines the bootnode set
// and genesis parameters and is immutable for the lifetime of a node.
// Any identifier outside the known list is treated as a custom network;
// custom networks carry no built-in bootnodes, so callers supply them
// through the config.
type Network string

// Bootstrappers is a type definition for nodes that will be used as
// bootstrappers.
type Bootstrappers []peer.AddrInfo

// ErrInvalidNetwork is thrown when an empty network identifier is used.
var ErrInvalidNetwork = errors.New("p2p: invalid network")

// Validate resolves aliases and reports the canonical Network.
func (n Network) Validate() (Network, error) {
	if net, ok := networkAliases[string(n)]; ok {
		return net, nil
	}
	if n == "" {
		return "", ErrInvalidNetwork
	}
	return n, nil
}

// IsCustom reports whether the Network is not one of the known
// long-standing networks.
func (n Network) IsCustom() bool {
	_, ok := networksList[n]
	return !ok
}

// String returns string representation of the Network.
func (n Network) String() string {
	return string(n)
}

// networksList is a strict list of all known long-standing networks.
var networksList = map[Network]struct{}{
	Mainnet: {},
	Arabica: {},
	Mocha:   {},
}

// networkAliases maps the string representation of a network's *alias*
// (rather than its actual value) to the Network.
var networkAliases = map[string]Network{
	"mainnet": Mainnet,
	"arabica": Arabica,
	"mocha":   Mocha,
}
