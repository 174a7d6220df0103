package migrator

import (
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"

	"github.com/speedrun-hq/liberator/pkg/models"
)

// DeriveTokenAccount returns the associated token account of owner for mint under ns
func DeriveTokenAccount(owner, mint solana.PublicKey, ns models.Namespace) (solana.PublicKey, error) {
	programID := ns.ProgramID()
	address, _, err := solana.FindProgramAddress(
		[][]byte{owner[:], programID[:], mint[:]},
		solana.SPLAssociatedTokenAccountProgramID,
	)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("failed to derive token account: %w", err)
	}
	return address, nil
}

// BuildTokenInstructions returns the instructions moving the whole holding to
// destinationAccount. A create-account instruction paid by source comes first
// only when destinationExists is false.
func BuildTokenInstructions(holding models.TokenHolding, source, destination, destinationAccount solana.PublicKey, destinationExists bool) ([]solana.Instruction, error) {
	var instructions []solana.Instruction
	if !destinationExists {
		instructions = append(instructions, createTokenAccountInstruction(source, destinationAccount, destination, holding.Mint, holding.Namespace))
	}

	transfer, err := transferInstruction(holding, source, destinationAccount)
	if err != nil {
		return nil, err
	}
	return append(instructions, transfer), nil
}

// createTokenAccountInstruction is the associated-token-account Create instruction
func createTokenAccountInstruction(payer, account, owner, mint solana.PublicKey, ns models.Namespace) solana.Instruction {
	return solana.NewInstruction(
		solana.SPLAssociatedTokenAccountProgramID,
		solana.AccountMetaSlice{
			solana.Meta(payer).WRITE().SIGNER(),
			solana.Meta(account).WRITE(),
			solana.Meta(owner),
			solana.Meta(mint),
			solana.Meta(solana.SystemProgramID),
			solana.Meta(ns.ProgramID()),
		},
		[]byte{},
	)
}

// transferInstruction encodes an SPL Transfer scoped to the holding's program
func transferInstruction(holding models.TokenHolding, owner, destinationAccount solana.PublicKey) (solana.Instruction, error) {
	built := token.NewTransferInstruction(
		holding.RawAmount,
		holding.SourceAccount,
		destinationAccount,
		owner,
		nil,
	).Build()

	data, err := built.Data()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer: %w", err)
	}
	return solana.NewInstruction(holding.Namespace.ProgramID(), built.Accounts(), data), nil
}
