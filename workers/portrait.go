package workers

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sync"

	"go.uber.org/zap"

	"github.com/camden-git/familytree/config"
	"github.com/camden-git/familytree/models"
	"github.com/camden-git/familytree/services"
	"github.com/camden-git/familytree/utils"
)

// ExtraPortraitTaken is the extra field holding a portrait's EXIF capture date
const ExtraPortraitTaken = "portrait_taken"

var ErrQueueFull = errors.New("portrait queue is full")
var ErrAlreadyPending = errors.New("portrait already pending for person")
var ErrStopped = errors.New("portrait processor stopped")

// PortraitJob is an uploaded image waiting to become a person's portrait. The source
// file is removed once the job has run.
type PortraitJob struct {
	PersonID   string
	SourcePath string
}

// PortraitStore persists the outcome of a job
type PortraitStore interface {
	SetPortrait(personID, portraitPath string, extra map[string]any) error
}

type PortraitProcessor struct {
	JobQueue chan PortraitJob
	Config   config.Config
	Store    PortraitStore
	Tree     *services.FamilyTree
	Logger   *zap.Logger
	Wg       sync.WaitGroup
	Pending  map[string]bool
	Mutex    sync.Mutex
	stopped  bool
}

func NewPortraitProcessor(cfg config.Config, store PortraitStore, tree *services.FamilyTree, logger *zap.Logger) *PortraitProcessor {
	numWorkers := cfg.NumPortraitWorkers
	if numWorkers <= 0 {
		numWorkers = 1
	}
	queueSize := cfg.PortraitQueueSize
	if queueSize <= 0 {
		queueSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	proc := &PortraitProcessor{
		JobQueue: make(chan PortraitJob, queueSize),
		Config:   cfg,
		Store:    store,
		Tree:     tree,
		Logger:   logger,
		Pending:  make(map[string]bool),
	}
	proc.Wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go proc.worker(i)
	}
	logger.Info("started portrait workers", zap.Int("workers", numWorkers), zap.Int("queue_size", queueSize))
	return proc
}

func (pp *PortraitProcessor) worker(id int) {
	defer pp.Wg.Done()
	log := pp.Logger.With(zap.Int("worker", id))
	for job := range pp.JobQueue {
		log.Debug("processing portrait", zap.String("person_id", job.PersonID))
		if err := pp.processJob(job); err != nil {
			log.Error("portrait processing failed", zap.String("person_id", job.PersonID), zap.Error(err))
		}
		pp.Mutex.Lock()
		delete(pp.Pending, job.PersonID)
		pp.Mutex.Unlock()
	}
	log.Debug("portrait worker stopping: job queue closed")
}

func (pp *PortraitProcessor) processJob(job PortraitJob) error {
	defer os.Remove(job.SourcePath)

	if _, ok := pp.Tree.Person(job.PersonID); !ok {
		return fmt.Errorf("person %s: %w", job.PersonID, models.ErrPersonNotFound)
	}

	name, err := utils.GeneratePortraitThumbnail(job.SourcePath, pp.Config.PortraitsPath, pp.Config.PortraitMaxSize)
	if err != nil {
		return err
	}
	portraitPath := path.Join(pp.Config.PortraitsSubDir, name)

	taken, found, err := utils.ReadCaptureDate(job.SourcePath)
	if err != nil {
		pp.Logger.Warn("failed to read portrait capture date", zap.String("person_id", job.PersonID), zap.Error(err))
	}

	err = pp.Tree.Exclusive(func() error {
		// re-read under the lock so extra fields written meanwhile are kept
		person, ok := pp.Tree.Person(job.PersonID)
		if !ok {
			return fmt.Errorf("person %s: %w", job.PersonID, models.ErrPersonNotFound)
		}
		var extra map[string]any
		if found {
			extra = person.Extra
			if extra == nil {
				extra = make(map[string]any)
			}
			extra[ExtraPortraitTaken] = models.DateOf(taken).String()
		}

		if err := pp.Store.SetPortrait(job.PersonID, portraitPath, extra); err != nil {
			return err
		}
		if err := pp.Tree.SetPortrait(job.PersonID, portraitPath); err != nil {
			return err
		}
		if extra != nil {
			return pp.Tree.SetExtra(job.PersonID, ExtraPortraitTaken, extra[ExtraPortraitTaken])
		}
		return nil
	})
	if err != nil {
		return err
	}

	pp.Logger.Info("portrait updated", zap.String("person_id", job.PersonID), zap.String("path", portraitPath))
	return nil
}

// QueueJob schedules job unless one is already pending for the same person
func (pp *PortraitProcessor) QueueJob(job PortraitJob) error {
	pp.Mutex.Lock()
	defer pp.Mutex.Unlock()
	if pp.stopped {
		return ErrStopped
	}
	if pp.Pending[job.PersonID] {
		return ErrAlreadyPending
	}

	select {
	case pp.JobQueue <- job:
		pp.Pending[job.PersonID] = true
		return nil
	default:
		pp.Logger.Warn("portrait job queue full", zap.String("person_id", job.PersonID))
		return ErrQueueFull
	}
}

// Stop lets the workers finish every queued job, then returns
func (pp *PortraitProcessor) Stop() {
	pp.Mutex.Lock()
	if !pp.stopped {
		pp.stopped = true
		close(pp.JobQueue)
	}
	pp.Mutex.Unlock()
	pp.Wg.Wait()
	pp.Logger.Info("all portrait workers stopped")
}
