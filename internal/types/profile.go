package types

import (
	"github.com/go-playground/validator/v10"
)

// RequirementProfile captures what an organization wants to train for.
// Every field is optional.
type RequirementProfile struct {
	Company       string `json:"company,omitempty" validate:"max=200"`
	Industry      string `json:"industry,omitempty" validate:"max=100"`
	EmployeeCount *int   `json:"employeeCount,omitempty" validate:"omitempty,min=0"`
	TargetGroup   string `json:"targetGroup,omitempty" validate:"max=100"`
	JobLevel      string `json:"jobLevel,omitempty" validate:"max=100"`
	SkillLevel    string `json:"skillLevel,omitempty" validate:"max=50"`
	LearningGoal  string `json:"learningGoal,omitempty" validate:"max=2000"`
	Duration      string `json:"duration,omitempty" validate:"max=50"`
	Budget        string `json:"budget,omitempty" validate:"max=50"`
}

// Validate validates the RequirementProfile using the validator.
func (p *RequirementProfile) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}
