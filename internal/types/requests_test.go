package types

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRegisterRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  RegisterRequest{Email: "a@example.com", Password: "longenough"},
		},
		{
			name:    "bad email",
			req:     RegisterRequest{Email: "not-an-email", Password: "longenough"},
			wantErr: true,
		},
		{
			name:    "short password",
			req:     RegisterRequest{Email: "a@example.com", Password: "short"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCreateJobPostingRequest_Validate(t *testing.T) {
	userID := uuid.New()

	valid := CreateJobPostingRequest{UserID: userID, SourceType: "manual", RawText: "posting text"}
	assert.NoError(t, valid.Validate())

	withSections := CreateJobPostingRequest{UserID: userID, SourceType: "manual", Sections: map[string]string{"requirements": "Go"}}
	assert.NoError(t, withSections.Validate())

	noContent := CreateJobPostingRequest{UserID: userID, SourceType: "manual"}
	err := noContent.Validate()
	assert.Error(t, err)
	assert.IsType(t, &MissingFieldError{}, err)

	badSource := CreateJobPostingRequest{UserID: userID, SourceType: "scraped", RawText: "x"}
	assert.Error(t, badSource.Validate())
}

func TestCreateExperienceRequest_Validate(t *testing.T) {
	valid := CreateExperienceRequest{
		UserID:   uuid.New(),
		Category: "project",
		Content:  map[string]string{"situation": "x"},
	}
	assert.NoError(t, valid.Validate())

	badCategory := valid
	badCategory.Category = "hobby"
	assert.Error(t, badCategory.Validate())

	empty := valid
	empty.Content = nil
	assert.Error(t, empty.Validate())
}

func TestStartInterviewRequest_Validate(t *testing.T) {
	valid := StartInterviewRequest{
		UserID:        uuid.New(),
		JobPostingID:  uuid.New(),
		ExperienceIDs: []uuid.UUID{uuid.New()},
	}
	assert.NoError(t, valid.Validate())

	noExperiences := valid
	noExperiences.ExperienceIDs = nil
	assert.Error(t, noExperiences.Validate())
}

func TestSubmitAnswerRequest_Validate(t *testing.T) {
	assert.NoError(t, (&SubmitAnswerRequest{AnswerText: "an answer"}).Validate())
	assert.Error(t, (&SubmitAnswerRequest{}).Validate())
}

func TestRecommendExperiencesRequest_Validate(t *testing.T) {
	valid := RecommendExperiencesRequest{UserID: uuid.New(), JobPostingID: uuid.New(), Limit: 5}
	assert.NoError(t, valid.Validate())

	tooMany := valid
	tooMany.Limit = 100
	assert.Error(t, tooMany.Validate())
}
