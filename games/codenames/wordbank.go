/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"context"
	"strings"
)

// NormalizeWordBank trims the name, trims and dedupes the words, and rejects
// banks without a name or without words.
func NormalizeWordBank(bank WordBank) (WordBank, error) {
	bank.Name = strings.TrimSpace(bank.Name)
	bank.Words = normalizeWords(bank.Words)
	if bank.Name == "" {
		return WordBank{}, newError(CodeInvalidWordBank, "word bank name is required")
	}
	if len(bank.Words) == 0 {
		return WordBank{}, newError(CodeInvalidWordBank, "word bank %q has no words", bank.Name)
	}
	return bank, nil
}

// SeedDefaultBank stores the built-in large bank. It fails with
// ErrWordBankExists when a bank of the same name is already present.
func SeedDefaultBank(ctx context.Context, banks WordBankStore) (WordBank, error) {
	existing, err := banks.ListWordBanks(ctx)
	if err != nil {
		return WordBank{}, err
	}
	for _, b := range existing {
		if b.Name == DefaultBankName {
			return WordBank{}, newError(CodeWordBankExists, "word bank %q already exists", DefaultBankName)
		}
	}

	return banks.CreateWordBank(ctx, WordBank{
		Name:      DefaultBankName,
		Words:     DefaultBankWords(),
		IsDefault: true,
	})
}
