package game

import "time"

// Answer is immutable once recorded for a (participant, question index) pair
type Answer struct {
	QuestionIndex  int       `json:"questionIndex"`
	SelectedOption int       `json:"answerIndex"`
	IsCorrect      bool      `json:"isCorrect"`
	RecordedAt     time.Time `json:"recordedAt"`
}

// SubmitAnswer records role's answer for question qi and scores it against the room's question
func SubmitAnswer(r *Room, role Role, qi, selected int, policy Policy, now time.Time) (Answer, error) {
	// rejects anything outside a running match
	if r.Status != StatusPlaying {
		return Answer{}, ErrNotPlaying
	}
	p := r.Participant(role)
	if p == nil {
		return Answer{}, ErrUnknownParticipant
	}
	if qi < 0 || qi >= len(r.Questions) {
		return Answer{}, ErrQuestionOutOfRange
	}
	// one answer per question index and participant
	if _, ok := p.Answers[qi]; ok {
		return Answer{}, ErrAlreadyAnswered
	}

	a := Answer{
		QuestionIndex:  qi,
		SelectedOption: selected,
		IsCorrect:      selected == r.Questions[qi].CorrectOption,
		RecordedAt:     now,
	}
	if a.IsCorrect {
		p.Score += policy.PointsPerCorrect
	}
	p.Answers[qi] = a
	return a, nil
}

// Answered returns how many questions the participant has answered
func Answered(p *Participant) int {
	if p == nil {
		return 0
	}
	return len(p.Answers)
}

// Correct returns how many of the participant's answers were right
func Correct(p *Participant) int {
	if p == nil {
		return 0
	}
	n := 0
	for _, a := range p.Answers {
		if a.IsCorrect {
			n++
		}
	}
	return n
}
