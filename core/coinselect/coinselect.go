// Package coinselect implements the UTXO selector (spec §4.6): greedy
// first-fit accumulation of spendable wallet coins against a caller's
// Bitcoin and alkanes requirements.
package coinselect

import (
	"encoding/hex"

	"alkanes-core/core/alkerrors"
	"alkanes-core/core/model"
	"alkanes-core/core/varint"
)

// Scope restricts which UTXOs are eligible for selection. An empty
// ScriptPubKeys means no address restriction; when non-empty it is the set
// of hex-encoded output scripts the caller's provider already resolved
// from its address scope (spec §4.6: "optional address scope").
type Scope struct {
	ScriptPubKeys    []string
	IncludeFrozen    bool
	MinConfirmations int64
}

// Result is the outcome of a successful selection.
type Result struct {
	Selected          []model.UTXO
	TotalSelected      uint64
	AlkanesRequirement map[model.AlkaneId]varint.Uint128
}

// Select enumerates candidates in enumeration order, skipping frozen coins
// (unless scope.IncludeFrozen) and coins below scope.MinConfirmations, and
// greedily accumulates Bitcoin value until it covers the requirements'
// total (spec §4.6: "Accumulate Bitcoin value greedily (first-fit by
// enumeration order) until Σ amount ≥ bitcoin_needed"). Alkanes
// requirements are recorded but not selected against — an extension point
// per spec §4.6.
func Select(candidates []model.UTXO, reqs []model.InputRequirement, scope Scope) (*Result, error) {
	need := model.BitcoinRequirement(reqs)
	alkReq := model.AlkanesRequirement(reqs)

	var selected []model.UTXO
	var have uint64

	for _, u := range candidates {
		if have >= need {
			break
		}
		if u.Frozen && !scope.IncludeFrozen {
			continue
		}
		if u.Confirmations < scope.MinConfirmations {
			continue
		}
		if !inScope(u, scope) {
			continue
		}
		selected = append(selected, u)
		have += u.Amount
	}

	if have < need {
		return nil, alkerrors.New(alkerrors.Wallet, "Insufficient funds: need %d sats, have %d", need, have)
	}

	return &Result{
		Selected:           selected,
		TotalSelected:       have,
		AlkanesRequirement: alkReq,
	}, nil
}

func inScope(u model.UTXO, scope Scope) bool {
	if len(scope.ScriptPubKeys) == 0 {
		return true
	}
	script := hex.EncodeToString(u.PkScript)
	for _, s := range scope.ScriptPubKeys {
		if s == script {
			return true
		}
	}
	return false
}
