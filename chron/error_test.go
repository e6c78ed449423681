package chron_test

import (
	"testing"

	"github.com/reugn/go-chron/chron"
	"github.com/reugn/go-chron/internal/assert"
)

func TestErrorMessages(t *testing.T) {
	t.Parallel()

	_, err := chron.Parse("not a schedule")
	assert.ErrorIs(t, err, chron.ErrParse)
	assert.ErrorContains(t, err, "parse crontab expression")

	_, err = chron.ParseField(chron.FieldKind(42), "*")
	assert.ErrorIs(t, err, chron.ErrIllegalArgument)
	assert.ErrorContains(t, err, "illegal argument")

	scheduler := chron.NewScheduler()
	_, err = scheduler.Find(1)
	assert.ErrorIs(t, err, chron.ErrTaskNotFound)
	assert.ErrorContains(t, err, "task not found")
}
