package domain

import "strings"

const MaxInputLength = 1000

type Intent string

const (
	IntentPrice        Intent = "price"
	IntentNews         Intent = "news"
	IntentEarnings     Intent = "earnings"
	IntentFullAnalysis Intent = "full_analysis"
	IntentMemoryQuery  Intent = "memory_query"
)

func (i Intent) IsValid() bool {
	switch i {
	case IntentPrice, IntentNews, IntentEarnings, IntentFullAnalysis, IntentMemoryQuery:
		return true
	}
	return false
}

func (i Intent) String() string { return string(i) }

type DataType string

const (
	DataMarket   DataType = "market"
	DataNews     DataType = "news"
	DataEarnings DataType = "earnings"
)

func (t DataType) IsValid() bool {
	switch t {
	case DataMarket, DataNews, DataEarnings:
		return true
	}
	return false
}

func (t DataType) String() string { return string(t) }

// DataTypesFor - статическая карта intent -> типы данных (маршрут не меняется в рантайме)
func DataTypesFor(i Intent) []DataType {
	switch i {
	case IntentPrice:
		return []DataType{DataMarket}
	case IntentNews:
		return []DataType{DataNews}
	case IntentEarnings:
		return []DataType{DataEarnings}
	case IntentFullAnalysis:
		return []DataType{DataMarket, DataNews, DataEarnings}
	}
	return nil
}

// Request - нормализованный запрос пользователя. После роутинга не мутируется.
type Request struct {
	RawText    string
	Symbol     string
	ActionItem string
	Intent     Intent
	DataTypes  []DataType
	Confidence float64 // уверенность препроцессора в определении intent, 0.0-1.0
}

func (r *Request) Validate() error {
	if strings.TrimSpace(r.RawText) == "" {
		return ErrEmptyInput
	}
	if len(r.RawText) > MaxInputLength {
		return ErrInputTooLong
	}
	if !r.Intent.IsValid() {
		return ErrInvalidIntent
	}
	if r.Intent != IntentMemoryQuery && r.Symbol == "" {
		return ErrMissingSymbol
	}
	for _, dt := range r.DataTypes {
		if !dt.IsValid() {
			return ErrInvalidDataType
		}
	}
	return nil
}

func (r *Request) NeedsSynthesis() bool {
	return r.Intent == IntentFullAnalysis
}
