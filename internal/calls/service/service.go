// Package service holds the call use cases: upload and enqueue on the API
// side, the processing pipeline on the worker side.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"salesclutch/internal/adapters/storage"
	"salesclutch/internal/calls/repository"
	"salesclutch/internal/calls/transcriber"
	"salesclutch/internal/deals/domain"
	"salesclutch/internal/instructionset"
	"salesclutch/internal/worker"
	"salesclutch/platform/apperr"
	"salesclutch/platform/logger"

	"github.com/google/uuid"
)

type Service struct {
	repo  *repository.Repository
	store storage.Service
	queue worker.Enqueuer
	sets  *instructionset.Registry
	log   *logger.Logger
}

func NewService(repo *repository.Repository, store storage.Service, queue worker.Enqueuer, sets *instructionset.Registry, log *logger.Logger) *Service {
	return &Service{repo: repo, store: store, queue: queue, sets: sets, log: log}
}

type UploadParams struct {
	WorkspaceID      uuid.UUID
	DealID           *uuid.UUID
	Filename         string
	Size             int64
	Content          io.Reader
	InstructionSetID string
	CreatedBy        *uuid.UUID
}

// Upload validates and stores the file, records the call as pending, and
// queues it for processing. Failing to enqueue marks the call failed
// immediately so it never sits in pending with no worker coming.
func (s *Service) Upload(ctx context.Context, params UploadParams) (repository.Call, error) {
	if _, err := s.sets.Get(params.InstructionSetID); err != nil {
		return repository.Call{}, apperr.Validationf("unknown instruction set %q", params.InstructionSetID)
	}
	if err := s.store.ValidateUpload(params.Filename, params.Size); err != nil {
		return repository.Call{}, err
	}

	folder := fmt.Sprintf("%s/calls", params.WorkspaceID)
	fileKey, err := s.store.Upload(ctx, folder, params.Filename, contentTypeFor(params.Filename), params.Content, params.Size)
	if err != nil {
		return repository.Call{}, fmt.Errorf("failed to store call file: %w", err)
	}

	call, err := s.repo.Create(ctx, repository.CreateCallParams{
		WorkspaceID:    params.WorkspaceID,
		DealID:         params.DealID,
		Filename:       params.Filename,
		FileKey:        fileKey,
		InstructionSet: params.InstructionSetID,
		CreatedBy:      params.CreatedBy,
	})
	if err != nil {
		return repository.Call{}, err
	}

	err = s.queue.EnqueueCallProcess(ctx, worker.CallProcessPayload{
		CallID:      call.ID.String(),
		WorkspaceID: call.WorkspaceID.String(),
	})
	if err != nil {
		if markErr := s.repo.MarkFailed(ctx, call.ID, "failed to queue for processing"); markErr != nil {
			s.log.Error("failed to mark unqueued call", "call_id", call.ID, "error", markErr)
		}
		return repository.Call{}, fmt.Errorf("failed to enqueue call: %w", err)
	}

	return call, nil
}

func (s *Service) GetByID(ctx context.Context, id, workspaceID uuid.UUID) (repository.Call, error) {
	return s.repo.GetByID(ctx, id, workspaceID)
}

func (s *Service) List(ctx context.Context, params repository.ListParams) ([]repository.Call, error) {
	if params.Limit <= 0 || params.Limit > 100 {
		params.Limit = 25
	}
	if params.Offset < 0 {
		params.Offset = 0
	}
	return s.repo.List(ctx, params)
}

// RecordingURL returns a presigned link to the stored file.
func (s *Service) RecordingURL(ctx context.Context, id, workspaceID uuid.UUID) (*storage.PresignedURL, error) {
	call, err := s.repo.GetByID(ctx, id, workspaceID)
	if err != nil {
		return nil, err
	}
	return s.store.DownloadURL(ctx, call.FileKey)
}

// AnalysisForCall reconstructs a completed call's analysis for the gate
// flow. Implements the deals handler's AnalysisSource.
func (s *Service) AnalysisForCall(ctx context.Context, callID, workspaceID uuid.UUID) (domain.CallAnalysisResult, string, error) {
	call, err := s.repo.GetByID(ctx, callID, workspaceID)
	if err != nil {
		return domain.CallAnalysisResult{}, "", err
	}
	if call.Status != repository.StatusCompleted {
		return domain.CallAnalysisResult{}, "", apperr.Validationf("call is %s, not completed", call.Status)
	}

	return analysisFromCall(call), call.InstructionSet, nil
}

func analysisFromCall(call repository.Call) domain.CallAnalysisResult {
	result := domain.CallAnalysisResult{
		ActionItems: call.ActionItems,
	}
	if call.Summary != nil {
		result.Summary = *call.Summary
	}
	if call.NextStep != nil {
		result.NextStep = *call.NextStep
	}
	if call.Determination != nil {
		result.Determination = domain.ParseDetermination(*call.Determination)
	} else {
		result.Determination = domain.NewRawDetermination("")
	}
	return result
}

// encodeDetermination persists a determination so ParseDetermination
// round-trips it: structured fields as JSON, raw text as-is.
func encodeDetermination(det domain.Determination) string {
	if fields, ok := det.Structured(); ok {
		data, err := json.Marshal(fields)
		if err == nil {
			return string(data)
		}
	}
	text, _ := det.Raw()
	return text
}

func contentTypeFor(fileName string) string {
	if storage.IsAudioFile(fileName) {
		if mimeType, err := transcriber.MimeTypeFor(fileName); err == nil {
			return mimeType
		}
	}
	if strings.HasSuffix(strings.ToLower(fileName), ".md") {
		return "text/markdown"
	}
	return "text/plain"
}
