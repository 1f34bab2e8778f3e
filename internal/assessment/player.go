package assessment

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/openlearnai/learning-service/internal/models"
)

type ViewMode string

const (
	ViewLesson     ViewMode = "lesson"
	ViewQuiz       ViewMode = "quiz"
	ViewAssessment ViewMode = "assessment"
	ViewFinalExam  ViewMode = "final-exam"
)

// PlayerHooks are invoked by a Player without any engine lock held. Any of
// them may be nil.
type PlayerHooks struct {
	LessonCompleted func(lessonID string)
	QuizCompleted   func(lessonID string, result Result)
	ExamCompleted   func(outcome ExamOutcome)
}

// Player walks a learner through one course: lessons in module order, the
// quiz blocks embedded in quiz and assessment lessons, and the final exam.
type Player struct {
	mu sync.Mutex

	course *models.Course
	hooks  PlayerHooks
	opts   []Option
	logger *slog.Logger

	positions []position
	cursor    int
	mode      ViewMode
	completed map[string]bool
	quizzes   map[string]*QuizBlock
	exam      *ExamSession
	closed    bool
}

type position struct {
	module int
	lesson int
}

type LessonView struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	Kind            models.LessonKind `json:"kind"`
	Content         string            `json:"content,omitempty"`
	DurationMinutes int               `json:"duration_minutes,omitempty"`
	Completed       bool              `json:"completed"`
}

type PlayerView struct {
	CourseID     string     `json:"course_id"`
	CourseTitle  string     `json:"course_title"`
	Mode         ViewMode   `json:"mode"`
	ModuleIndex  int        `json:"module_index"`
	ModuleTitle  string     `json:"module_title"`
	LessonIndex  int        `json:"lesson_index"`
	Lesson       LessonView `json:"lesson"`
	Progress     int        `json:"progress"`
	Completed    []string   `json:"completed_lessons"`
	HasPrev      bool       `json:"has_prev"`
	HasNext      bool       `json:"has_next"`
	HasFinalExam bool       `json:"has_final_exam"`
	Quiz         *QuizView  `json:"quiz,omitempty"`
	Exam         *ExamView  `json:"exam,omitempty"`
}

func NewPlayer(course *models.Course, hooks PlayerHooks, opts ...Option) (*Player, error) {
	if course == nil || course.LessonCount() == 0 {
		return nil, ErrEmptyCourse
	}
	o := buildOptions(opts)

	p := &Player{
		course:    course,
		hooks:     hooks,
		opts:      opts,
		logger:    o.logger.With("component", "player", "course_id", course.ID),
		completed: make(map[string]bool),
		quizzes:   make(map[string]*QuizBlock),
	}
	for mi, m := range course.Modules {
		for li := range m.Lessons {
			p.positions = append(p.positions, position{module: mi, lesson: li})
		}
	}
	p.mode = modeFor(p.lessonAt(0))
	return p, nil
}

// Open moves to the lesson at the given module and lesson index.
func (p *Player) Open(moduleIndex, lessonIndex int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrSessionClosed
	}
	for i, pos := range p.positions {
		if pos.module == moduleIndex && pos.lesson == lessonIndex {
			p.moveLocked(i)
			return nil
		}
	}
	return fmt.Errorf("%w: module %d lesson %d", ErrInvalidPosition, moduleIndex, lessonIndex)
}

func (p *Player) OpenLesson(lessonID string) error {
	_, mi, li, ok := p.course.FindLesson(lessonID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}
	return p.Open(mi, li)
}

// Next moves to the following lesson, crossing module boundaries. It reports
// false on the last lesson and while the final exam is shown.
func (p *Player) Next() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false, ErrSessionClosed
	}
	if p.mode == ViewFinalExam || p.cursor >= len(p.positions)-1 {
		return false, nil
	}
	p.moveLocked(p.cursor + 1)
	return true, nil
}

// Prev moves to the preceding lesson. From the final exam it returns to the
// lesson that was open before. It reports false on the first lesson.
func (p *Player) Prev() (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false, ErrSessionClosed
	}
	if p.mode == ViewFinalExam {
		p.moveLocked(p.cursor)
		return true, nil
	}
	if p.cursor == 0 {
		return false, nil
	}
	p.moveLocked(p.cursor - 1)
	return true, nil
}

// OpenFinalExam switches to the final exam view, creating the exam session on
// first use.
func (p *Player) OpenFinalExam() (*ExamSession, error) {
	exam, err := p.Exam()
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrSessionClosed
	}
	p.mode = ViewFinalExam
	return exam, nil
}

// Exam returns the course's exam session, creating it on first use.
func (p *Player) Exam() (*ExamSession, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrSessionClosed
	}
	if p.course.FinalExam == nil {
		return nil, ErrNoFinalExam
	}
	if p.exam != nil {
		return p.exam, nil
	}

	exam, err := NewExamSession(*p.course.FinalExam, nil, p.opts...)
	if err != nil {
		return nil, err
	}
	exam.onComplete = func(int, bool) {
		if outcome, ok := exam.Outcome(); ok {
			p.examCompleted(outcome)
		}
	}
	p.exam = exam
	return exam, nil
}

// Quiz returns the quiz block of a quiz or assessment lesson, creating it on
// first use.
func (p *Player) Quiz(lessonID string) (*QuizBlock, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrSessionClosed
	}
	if block, ok := p.quizzes[lessonID]; ok {
		return block, nil
	}

	lesson, _, _, ok := p.course.FindLesson(lessonID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}
	if lesson.Kind == models.LessonContent || lesson.Quiz == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotQuizLesson, lessonID)
	}

	var block *QuizBlock
	block, err := NewQuizBlock(*lesson.Quiz, func(int) {
		if result, err := block.Review(); err == nil {
			p.quizCompleted(*lesson, result)
		}
	}, p.opts...)
	if err != nil {
		return nil, err
	}
	p.quizzes[lessonID] = block
	return block, nil
}

// CurrentQuiz returns the quiz block of the lesson currently open.
func (p *Player) CurrentQuiz() (*QuizBlock, error) {
	p.mu.Lock()
	lesson := p.lessonAt(p.cursor)
	p.mu.Unlock()
	return p.Quiz(lesson.ID)
}

// MarkComplete records a lesson as completed. The LessonCompleted hook fires
// only the first time.
func (p *Player) MarkComplete(lessonID string) error {
	if _, _, _, ok := p.course.FindLesson(lessonID); !ok {
		return fmt.Errorf("%w: %s", ErrLessonNotFound, lessonID)
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrSessionClosed
	}
	first := !p.completed[lessonID]
	p.completed[lessonID] = true
	hook := p.hooks.LessonCompleted
	p.mu.Unlock()

	if first {
		p.logger.Info("Lesson completed", "lesson_id", lessonID)
		if hook != nil {
			hook(lessonID)
		}
	}
	return nil
}

// Restore marks previously stored lessons as completed without firing hooks.
// Unknown lesson ids are ignored.
func (p *Player) Restore(lessonIDs []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range lessonIDs {
		if _, _, _, ok := p.course.FindLesson(id); ok {
			p.completed[id] = true
		}
	}
}

func (p *Player) IsCompleted(lessonID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed[lessonID]
}

// Progress is the rounded share of completed lessons.
func (p *Player) Progress() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Percentage(len(p.completed), len(p.positions))
}

func (p *Player) Mode() ViewMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.mode
}

func (p *Player) Course() *models.Course {
	return p.course
}

func (p *Player) Current() PlayerView {
	p.mu.Lock()
	pos := p.positions[p.cursor]
	lesson := p.lessonAt(p.cursor)
	v := PlayerView{
		CourseID:     p.course.ID,
		CourseTitle:  p.course.Title,
		Mode:         p.mode,
		ModuleIndex:  pos.module,
		ModuleTitle:  p.course.Modules[pos.module].Title,
		LessonIndex:  pos.lesson,
		Progress:     Percentage(len(p.completed), len(p.positions)),
		Completed:    p.completedLocked(),
		HasPrev:      p.cursor > 0 || p.mode == ViewFinalExam,
		HasNext:      p.cursor < len(p.positions)-1,
		HasFinalExam: p.course.FinalExam != nil,
		Lesson: LessonView{
			ID:              lesson.ID,
			Title:           lesson.Title,
			Kind:            lesson.Kind,
			Content:         lesson.Content,
			DurationMinutes: lesson.DurationMinutes,
			Completed:       p.completed[lesson.ID],
		},
	}
	block := p.quizzes[lesson.ID]
	exam := p.exam
	mode := p.mode
	p.mu.Unlock()

	switch mode {
	case ViewQuiz, ViewAssessment:
		if block != nil {
			qv := block.View()
			v.Quiz = &qv
		}
	case ViewFinalExam:
		if exam != nil {
			ev := exam.View()
			v.Exam = &ev
		}
	}
	return v
}

// Close cancels a running exam without grading it. The player cannot be used
// afterwards.
func (p *Player) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	exam := p.exam
	p.mu.Unlock()

	if exam != nil {
		exam.Cancel()
	}
}

func (p *Player) quizCompleted(lesson models.Lesson, result Result) {
	percent := result.Percent()
	complete := lesson.Kind == models.LessonQuiz || Passed(percent, lesson.Quiz.PassingScore)

	p.logger.Info("Quiz completed",
		"lesson_id", lesson.ID,
		"correct", result.Correct,
		"total", result.Total,
		"score", percent,
		"completes_lesson", complete,
	)

	if hook := p.hooks.QuizCompleted; hook != nil {
		hook(lesson.ID, result)
	}
	if complete {
		if err := p.MarkComplete(lesson.ID); err != nil {
			p.logger.Warn("Failed to mark lesson complete", "lesson_id", lesson.ID, "error", err)
		}
	}
}

func (p *Player) examCompleted(outcome ExamOutcome) {
	p.logger.Info("Final exam completed", "score", outcome.Score, "passed", outcome.Passed, "reason", outcome.Reason)
	if hook := p.hooks.ExamCompleted; hook != nil {
		hook(outcome)
	}
}

// moveLocked opens lesson i. Leaving an exam that is still running cancels it
// without grading; the next OpenFinalExam starts a fresh session.
func (p *Player) moveLocked(i int) {
	if p.mode == ViewFinalExam && p.exam != nil && p.exam.State() == ExamInProgress {
		p.exam.Cancel()
		p.exam = nil
		p.logger.Info("Running exam abandoned")
	}
	p.cursor = i
	p.mode = modeFor(p.lessonAt(i))
}

func (p *Player) lessonAt(i int) models.Lesson {
	pos := p.positions[i]
	return p.course.Modules[pos.module].Lessons[pos.lesson]
}

func (p *Player) completedLocked() []string {
	ids := make([]string, 0, len(p.completed))
	for id := range p.completed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func modeFor(lesson models.Lesson) ViewMode {
	switch lesson.Kind {
	case models.LessonQuiz:
		return ViewQuiz
	case models.LessonAssessment:
		return ViewAssessment
	}
	return ViewLesson
}
