package models

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// Token2022ProgramID is the program id of the extended token program
var Token2022ProgramID = solana.MustPublicKeyFromBase58("TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb")

// Namespace is the token program variant a holding lives under
type Namespace int

const (
	// Legacy is the original SPL Token program
	Legacy Namespace = iota
	// Extended is the Token-2022 program
	Extended
)

// Namespaces lists the namespaces in discovery order
var Namespaces = []Namespace{Legacy, Extended}

// ProgramID returns the token program id governing the namespace
func (n Namespace) ProgramID() solana.PublicKey {
	if n == Extended {
		return Token2022ProgramID
	}
	return solana.TokenProgramID
}

func (n Namespace) String() string {
	switch n {
	case Legacy:
		return "token"
	case Extended:
		return "token-2022"
	}
	return fmt.Sprintf("namespace(%d)", int(n))
}

// MarshalText implements encoding.TextMarshaler
func (n Namespace) MarshalText() ([]byte, error) {
	return []byte(n.String()), nil
}
