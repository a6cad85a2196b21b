package reducer

import (
	"Stardust/internal/model"
)

// TaskDone reports whether the player has finished task.
func TaskDone(p model.Player, t model.Task) bool {
	progress := p.TaskProgressByID[t.ID]
	if t.Kind == model.TaskTelegram {
		return (t.LegacyFollow && p.HasCompletedFollowTask) || progress > 0
	}
	return progress >= taskLimit(t)
}

func taskLimit(t model.Task) int {
	if t.DailyLimit <= 0 {
		return 1
	}
	return t.DailyLimit
}

func lookupTask(env Env, id string) (model.Task, error) {
	t, ok := env.Catalogs.Task(id)
	if !ok {
		return model.Task{}, ErrNotFound
	}
	return t, nil
}

func ensureTaskMaps(p *model.Player) {
	if p.TaskProgressByID == nil {
		p.TaskProgressByID = map[string]int{}
	}
	if p.PendingTasks == nil {
		p.PendingTasks = map[string]bool{}
	}
}

// OpenTask records the first interaction with a link task (the external link was opened).
type OpenTask struct {
	TaskID string `json:"task_id"`
}

func (OpenTask) Name() string { return "open_task" }

func (a OpenTask) apply(p *model.Player, env Env) error {
	t, err := lookupTask(env, a.TaskID)
	if err != nil {
		return err
	}
	if t.Kind == model.TaskAdWatch {
		return ErrWrongKind
	}
	if TaskDone(*p, t) {
		return ErrTaskComplete
	}
	ensureTaskMaps(p)
	p.PendingTasks[t.ID] = true
	return nil
}

// VerifyTelegramTask is the second interaction with a telegram task. Joined carries
// the result of the external membership check, performed before dispatch.
type VerifyTelegramTask struct {
	TaskID string `json:"task_id"`
	Joined bool   `json:"joined"`
}

func (VerifyTelegramTask) Name() string { return "verify_telegram_task" }

func (a VerifyTelegramTask) apply(p *model.Player, env Env) error {
	t, err := lookupTask(env, a.TaskID)
	if err != nil {
		return err
	}
	if t.Kind != model.TaskTelegram {
		return ErrWrongKind
	}
	if TaskDone(*p, t) {
		return ErrTaskComplete
	}
	if !p.PendingTasks[t.ID] {
		return ErrNotPending
	}
	if !a.Joined {
		return ErrNotJoined
	}
	ensureTaskMaps(p)
	p.Balance += t.Reward
	p.TaskProgressByID[t.ID] = 1
	delete(p.PendingTasks, t.ID)
	if t.LegacyFollow {
		p.HasCompletedFollowTask = true
	}
	return nil
}

// ClaimVideoTask confirms a watched video with its secret code.
// A wrong code keeps the task pending so the player can retry.
type ClaimVideoTask struct {
	TaskID string `json:"task_id"`
	Code   string `json:"code"`
}

func (ClaimVideoTask) Name() string { return "claim_video_task" }

func (a ClaimVideoTask) apply(p *model.Player, env Env) error {
	t, err := lookupTask(env, a.TaskID)
	if err != nil {
		return err
	}
	if t.Kind != model.TaskYouTubeVideo && t.Kind != model.TaskYouTubeShorts {
		return ErrWrongKind
	}
	if TaskDone(*p, t) {
		return ErrTaskComplete
	}
	if !p.PendingTasks[t.ID] {
		return ErrNotPending
	}
	if t.SecretCode != "" && normalizeCode(a.Code) != normalizeCode(t.SecretCode) {
		return ErrCodeMismatch
	}
	ensureTaskMaps(p)
	p.TaskProgressByID[t.ID]++
	p.Balance += t.Reward
	delete(p.PendingTasks, t.ID)
	return nil
}

// RecordTaskAd counts one completed ad view toward an ad-watch task.
// The reward is paid once, when progress reaches the daily limit.
type RecordTaskAd struct {
	TaskID string `json:"task_id"`
}

func (RecordTaskAd) Name() string { return "record_task_ad" }

func (a RecordTaskAd) apply(p *model.Player, env Env) error {
	t, err := lookupTask(env, a.TaskID)
	if err != nil {
		return err
	}
	if t.Kind != model.TaskAdWatch {
		return ErrWrongKind
	}
	if TaskDone(*p, t) {
		return ErrTaskComplete
	}
	ensureTaskMaps(p)
	p.TaskProgressByID[t.ID]++
	p.LastAdWatchedAt = env.Now
	if p.TaskProgressByID[t.ID] == taskLimit(t) {
		p.Balance += t.Reward
	}
	return nil
}
