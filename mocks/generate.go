package mocks

//go:generate mockgen -destination=./mock_account_source.go -package=mocks github.com/rxtech-lab/traderz-go/pkg/traderz AccountSource
