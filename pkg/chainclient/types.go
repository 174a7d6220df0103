package chainclient

type rpcContext struct {
	Slot uint64 `json:"slot"`
}

type balanceResult struct {
	Context rpcContext `json:"context"`
	Value   uint64     `json:"value"`
}

type blockhashResult struct {
	Context rpcContext `json:"context"`
	Value   struct {
		Blockhash            string `json:"blockhash"`
		LastValidBlockHeight uint64 `json:"lastValidBlockHeight"`
	} `json:"value"`
}

type accountInfoResult struct {
	Context rpcContext `json:"context"`
	Value   *struct {
		Lamports uint64 `json:"lamports"`
		Owner    string `json:"owner"`
	} `json:"value"`
}

type feeResult struct {
	Context rpcContext `json:"context"`
	Value   *uint64    `json:"value"`
}

type tokenAmount struct {
	Amount         string `json:"amount"`
	Decimals       uint8  `json:"decimals"`
	UIAmountString string `json:"uiAmountString"`
}

type tokenAccount struct {
	Pubkey  string `json:"pubkey"`
	Account struct {
		Data struct {
			Parsed struct {
				Info struct {
					Mint        string      `json:"mint"`
					Owner       string      `json:"owner"`
					TokenAmount tokenAmount `json:"tokenAmount"`
				} `json:"info"`
				Type string `json:"type"`
			} `json:"parsed"`
			Program string `json:"program"`
		} `json:"data"`
	} `json:"account"`
}

type tokenAccountsResult struct {
	Context rpcContext     `json:"context"`
	Value   []tokenAccount `json:"value"`
}

// SignatureStatus is the status of a submitted transaction
type SignatureStatus struct {
	Slot               uint64      `json:"slot"`
	Confirmations      *uint64     `json:"confirmations"`
	Err                interface{} `json:"err"`
	ConfirmationStatus *string     `json:"confirmationStatus"`
}

type signatureStatusesResult struct {
	Context rpcContext         `json:"context"`
	Value   []*SignatureStatus `json:"value"`
}
