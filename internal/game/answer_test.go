package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitAnswerScoresCorrectAnswers(t *testing.T) {
	r := playingRoom(t)
	pol := DefaultPolicy()

	a, err := SubmitAnswer(r, RoleHost, 0, 0, pol, t0)
	require.NoError(t, err)
	assert.True(t, a.IsCorrect)
	assert.Equal(t, 10, r.Host.Score)
	assert.Equal(t, 0, r.Guest.Score)

	a, err = SubmitAnswer(r, RoleGuest, 0, 1, pol, t0)
	require.NoError(t, err)
	assert.False(t, a.IsCorrect)
	assert.Equal(t, 0, r.Guest.Score)
}

func TestSubmitAnswerIsIdempotentPerParticipant(t *testing.T) {
	r := playingRoom(t)
	pol := DefaultPolicy()

	_, err := SubmitAnswer(r, RoleHost, 1, 1, pol, t0)
	require.NoError(t, err)

	_, err = SubmitAnswer(r, RoleHost, 1, 1, pol, t0.Add(time.Second))
	assert.ErrorIs(t, err, ErrAlreadyAnswered)
	_, err = SubmitAnswer(r, RoleHost, 1, 0, pol, t0.Add(time.Second))
	assert.ErrorIs(t, err, ErrAlreadyAnswered)

	assert.Equal(t, 10, r.Host.Score, "score changes only once")
	assert.Equal(t, t0, r.Host.Answers[1].RecordedAt, "answer is immutable")
	assert.Equal(t, 1, Answered(r.Host))
	assert.Equal(t, 1, Correct(r.Host))
}

func TestCorrectCountsOnlyRightAnswers(t *testing.T) {
	r := playingRoom(t)
	pol := DefaultPolicy()
	for qi := 0; qi < len(r.Questions); qi++ {
		_, err := SubmitAnswer(r, RoleGuest, qi, r.Questions[qi].CorrectOption, pol, t0)
		require.NoError(t, err)
	}
	_, err := SubmitAnswer(r, RoleHost, 0, r.Questions[0].CorrectOption+1, pol, t0)
	require.NoError(t, err)

	assert.Equal(t, len(r.Questions), Correct(r.Guest))
	assert.Equal(t, 0, Correct(r.Host))
	assert.Equal(t, 1, Answered(r.Host))
	assert.Zero(t, Correct(nil))
}

func TestSubmitAnswerRejections(t *testing.T) {
	pol := DefaultPolicy()

	r := playingRoom(t)
	_, err := SubmitAnswer(r, RoleHost, -1, 0, pol, t0)
	assert.ErrorIs(t, err, ErrQuestionOutOfRange)
	_, err = SubmitAnswer(r, RoleHost, 3, 0, pol, t0)
	assert.ErrorIs(t, err, ErrQuestionOutOfRange)
	_, err = SubmitAnswer(r, Role("spectator"), 0, 0, pol, t0)
	assert.ErrorIs(t, err, ErrUnknownParticipant)

	ready := NewRoom("AB23CD", NewParticipant("u1", "alice", "", "c1"), t0)
	require.NoError(t, Join(ready, NewParticipant("u2", "bob", "", "c2"), questions()))
	_, err = SubmitAnswer(ready, RoleHost, 0, 0, pol, t0)
	assert.ErrorIs(t, err, ErrNotPlaying)

	require.NoError(t, Complete(r, t0))
	_, err = SubmitAnswer(r, RoleGuest, 0, 0, pol, t0)
	assert.ErrorIs(t, err, ErrNotPlaying)

	assert.Zero(t, r.Host.Score)
	assert.Zero(t, r.Guest.Score)
	assert.Empty(t, r.Host.Answers)
}

func TestSubmitAnswerAfterOpponentDisconnect(t *testing.T) {
	r := playingRoom(t)
	Disconnect(r, RoleGuest)

	_, err := SubmitAnswer(r, RoleHost, 2, 2, DefaultPolicy(), t0)
	require.NoError(t, err)
	assert.Equal(t, 10, r.Host.Score)
}
