package models

type Quantity struct {
	ID      string  `json:"id" mapstructure:"id" validate:"required"`
	Label   string  `json:"label" mapstructure:"label" validate:"required"`
	ValueML float64 `json:"value_ml" mapstructure:"value_ml"`
}
