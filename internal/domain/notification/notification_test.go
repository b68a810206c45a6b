package notification

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPayload_Validate(t *testing.T) {
	assert.ErrorIs(t, Payload{EventType: EventFeePaid}.Validate(), ErrNoRecipient)
	assert.NoError(t, Payload{RecipientEmail: "guardian@example.com"}.Validate())
	assert.NoError(t, Payload{UserIDs: []uuid.UUID{uuid.New()}}.Validate())
}

func TestNewInApp(t *testing.T) {
	userID := uuid.New()
	p := Payload{
		EventType: EventStudentRemoved,
		OrgID:     uuid.New(),
		UserIDs:   []uuid.UUID{userID},
		Template:  Template{Title: "Student removed", Body: "Ada Lovelace was removed", Data: map[string]any{"student": "Ada"}},
	}
	n := NewInApp(p, userID)
	assert.Equal(t, userID, n.UserID)
	assert.Equal(t, p.OrgID, n.OrgID)
	assert.Equal(t, "Student removed", n.Title)
	assert.Nil(t, n.ReadAt)
}
