package order

// Status is an order state reported by the bridge API.
type Status string

const (
	// StatusPlaced is implied when the API has no record of the order yet.
	StatusPlaced Status = "Placed"

	StatusExecuted         Status = "Executed"
	StatusAttested         Status = "Attested"
	StatusClaimed          Status = "Claimed"
	StatusClaimedInsurance Status = "ClaimedInsurance"

	StatusExpired        Status = "Expired"
	StatusPendingRefund  Status = "Pending Refund"
	StatusAttestedRefund Status = "Attested Refund"
	StatusClaimedRefund  Status = "Claimed Refund"

	StatusFailed Status = "Failed"
)

var descriptions = map[Status]string{
	StatusPlaced:           "order submitted, waiting for an executor",
	StatusExecuted:         "executor delivered funds on the destination chain",
	StatusAttested:         "execution attested, executor claim pending",
	StatusClaimed:          "executor claimed the reward, transfer complete",
	StatusClaimedInsurance: "insurance claimed, transfer complete",
	StatusExpired:          "no executor picked the order up in time",
	StatusPendingRefund:    "refund requested, waiting for processing",
	StatusAttestedRefund:   "refund attested, payout pending",
	StatusClaimedRefund:    "refund claimed back to the source wallet",
	StatusFailed:           "order failed",
}

// Description returns a human explanation of the status for log output.
func (s Status) Description() string {
	if d, ok := descriptions[s]; ok {
		return d
	}
	return "unrecognized status"
}

func (s Status) Known() bool {
	_, ok := descriptions[s]
	return ok
}

// IsSuccess reports whether the funds were delivered on the destination chain.
func (s Status) IsSuccess() bool {
	switch s {
	case StatusExecuted, StatusAttested, StatusClaimed, StatusClaimedInsurance:
		return true
	}
	return false
}

// IsRefundEligible reports the states where the order missed execution but
// the funds come back to the source wallet. These are not terminal: an
// expired order can still be picked up and executed.
func (s Status) IsRefundEligible() bool {
	switch s {
	case StatusExpired, StatusPendingRefund, StatusAttestedRefund, StatusClaimedRefund:
		return true
	}
	return false
}

func (s Status) IsFailed() bool {
	return s == StatusFailed
}
