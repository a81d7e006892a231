package indicators

import (
	"indicator-engine/internal/analysis/series"
	apperrors "indicator-engine/internal/errors"
	"indicator-engine/internal/models"
)

// ResolveInputs extracts the input series desc declares from bars. The price
// role reads the price field; every other role reads the bar column of the
// same name.
func ResolveInputs(desc Descriptor, bars models.Bars, price models.Field) ([]series.Series, error) {
	inputs := make([]series.Series, len(desc.Inputs))
	for i, role := range desc.Inputs {
		field := price
		if role != InputPrice {
			f, err := models.ParseField(string(role))
			if err != nil {
				return nil, apperrors.NewInputError(desc.Name, len(desc.Inputs), i, err.Error())
			}
			field = f
		}
		inputs[i] = bars.Column(field)
	}
	return inputs, nil
}
