package stakequorum

// QuorumThreshold returns the minimum combined stake required to certify a
// fact such that no two conflicting facts can both reach a quorum: the
// smallest t with 3*t > 2*total, the stake-weighted equivalent of 2f+1.
// Computed without forming 2*total, which could overflow.
func QuorumThreshold(total Stake) Stake {
	threshold := 2 * (total / 3)
	if total%3 == 2 {
		return threshold + 2
	}
	return threshold + 1
}

// ValidityThreshold returns the minimum combined stake that guarantees the
// participation of at least one non-faulty authority: the smallest t with
// 3*t > total, the stake-weighted equivalent of f+1.
func ValidityThreshold(total Stake) Stake {
	return total/3 + 1
}
