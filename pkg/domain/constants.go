package domain

// Intents with first-class handling.
const (
	IntentGetBalance          = "get_balance"
	IntentBalanceInquiry      = "balance_inquiry"
	IntentTransactionHistory  = "transaction_history"
	IntentTransferMoney       = "transfer_money"
	IntentLostOrStolenCard    = "lost_or_stolen_card"
	IntentTerminateAccount    = "terminate_account"
	IntentChangePIN           = "change_pin"
	IntentDisputedTransaction = "disputed_transaction"
	IntentGeneralInquiry      = "general_inquiry"
)

// Slot names of the required-slot vocabulary.
const (
	SlotAccountType   = "account_type"
	SlotDateRangeName = "date_range"
	SlotSourceAccount = "source_account"
	SlotTargetAccount = "target_account"
	SlotAmountName    = "amount"
	SlotCardLast4     = "card_last4"
)

// Degraded classification used when the intent classifier fails.
const (
	DegradedIntent     = IntentGeneralInquiry
	DegradedConfidence = 0.3
)

// Collaborator names used in failure events and metrics labels.
const (
	CollaboratorClassifier = "classifier"
	CollaboratorExtractor  = "extractor"
	CollaboratorBackend    = "backend"
)
