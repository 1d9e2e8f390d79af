/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package services

import (
	"context"
	"fmt"

	"github.com/tomoncle/findagent"
	"github.com/tomoncle/findagent/models"
	"github.com/tomoncle/findagent/types"
	"github.com/uptrace/bun"
)

type LLMService struct {
	findagent.Service[models.LLM, int64]
}

// NewLLMService returns an LLMService on db, or on the global connection when db is nil.
func NewLLMService(db bun.IDB) *LLMService {
	return &LLMService{Service: newService[models.LLM](db)}
}

func (s *LLMService) WithTx(tx bun.Tx) *LLMService {
	return &LLMService{Service: s.Service.WithTx(tx)}
}

// CreateLLM validates req and inserts the llm under an unused model name.
func (s *LLMService) CreateLLM(ctx context.Context, req *LLMCreate) (*models.LLM, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	if err := s.checkModelName(ctx, req.ModelName, 0); err != nil {
		return nil, err
	}

	llm, err := s.Save(ctx, req.model())
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: %q", ErrLLMModelNameExists, req.ModelName)
		}
		return nil, err
	}
	log.WithField("id", llm.ID).Infof("created llm %s/%s", llm.Provider, llm.ModelName)
	return llm, nil
}

func (s *LLMService) UpdateLLM(ctx context.Context, id int64, req *LLMUpdate) (*models.LLM, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	llm, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if llm == nil {
		return nil, fmt.Errorf("%w: id %d", ErrLLMNotFound, id)
	}
	if req.ModelName != nil && *req.ModelName != "" && *req.ModelName != llm.ModelName {
		if err := s.checkModelName(ctx, *req.ModelName, id); err != nil {
			return nil, err
		}
	}

	req.apply(llm)
	updated, err := s.Update(ctx, llm)
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%w: %q", ErrLLMModelNameExists, llm.ModelName)
		}
		return nil, err
	}
	return updated, nil
}

func (s *LLMService) checkModelName(ctx context.Context, name string, excludeID int64) error {
	taken, err := valueTaken(ctx, s.SelectBuilder(), "model_name", name, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: %q", ErrLLMModelNameExists, name)
	}
	return nil
}

func (s *LLMService) GetLLM(ctx context.Context, id int64) (*models.LLM, error) {
	return s.Get(ctx, id)
}

func (s *LLMService) GetLLMByModelName(ctx context.Context, modelName string) (*models.LLM, error) {
	if modelName == "" {
		return nil, nil
	}
	llms, err := s.List(ctx, &models.LLMQuery{ModelName: &modelName}, nil)
	if err != nil || len(llms) == 0 {
		return nil, err
	}
	return llms[0], nil
}

func (s *LLMService) GetLLMsByProvider(ctx context.Context, provider string) ([]*models.LLM, error) {
	return s.List(ctx, &models.LLMQuery{Provider: &provider}, nil)
}

func (s *LLMService) GetLLMsByType(ctx context.Context, modelType types.ModelType) ([]*models.LLM, error) {
	return s.List(ctx, &models.LLMQuery{ModelType: &modelType}, nil)
}

func (s *LLMService) GetLLMsByStatus(ctx context.Context, status types.Status) ([]*models.LLM, error) {
	return s.List(ctx, &models.LLMQuery{Status: &status}, nil)
}

func (s *LLMService) GetActiveLLMs(ctx context.Context) ([]*models.LLM, error) {
	return s.GetLLMsByStatus(ctx, types.StatusActive)
}

func (s *LLMService) GetBasicModels(ctx context.Context) ([]*models.LLM, error) {
	return s.GetLLMsByType(ctx, types.ModelTypeBasic)
}

func (s *LLMService) GetThinkingModels(ctx context.Context) ([]*models.LLM, error) {
	return s.GetLLMsByType(ctx, types.ModelTypeThinking)
}

func (s *LLMService) GetMultimodalModels(ctx context.Context) ([]*models.LLM, error) {
	return s.GetLLMsByType(ctx, types.ModelTypeMultimodal)
}

// SearchLLMs matches keyword against provider and model name. Nil filters are ignored.
func (s *LLMService) SearchLLMs(ctx context.Context, keyword string, provider *string, modelType *types.ModelType, status *types.Status) ([]*models.LLM, error) {
	q := s.Repository().Where(s.SelectBuilder(), &models.LLMQuery{Provider: provider, ModelType: modelType, Status: status})
	q = keywordMatch(q, keyword, "provider", "model_name")
	return scanAll[models.LLM](ctx, q)
}

func (s *LLMService) DeleteLLM(ctx context.Context, id int64) (bool, error) {
	return s.DeleteByID(ctx, id)
}

func (s *LLMService) GetAllLLMs(ctx context.Context) ([]*models.LLM, error) {
	return s.List(ctx, types.MatchAll{}, nil)
}

func (s *LLMService) LLMExists(ctx context.Context, modelName string) (bool, error) {
	if modelName == "" {
		return false, nil
	}
	return s.Exists(ctx, &models.LLMQuery{ModelName: &modelName})
}

func (s *LLMService) GetLLMsByProviderAndType(ctx context.Context, provider string, modelType types.ModelType) ([]*models.LLM, error) {
	return s.List(ctx, &models.LLMQuery{Provider: &provider, ModelType: &modelType}, nil)
}

func (s *LLMService) BatchUpdateStatus(ctx context.Context, ids []int64, status types.Status) (int, error) {
	n, err := batchUpdateStatus(ctx, s.Service, ids, status, func(m *models.LLM, st types.Status) { m.Status = st })
	if err != nil {
		return 0, err
	}
	log.WithField("status", status.Name()).Infof("updated %d of %d llms", n, len(ids))
	return n, nil
}

func (s *LLMService) ListLLMs(ctx context.Context, page *types.PageHelper) (*types.Paginate[models.LLM], error) {
	return s.Page(ctx, page)
}

// CheckLLM reports whether the llm with id exists and is active.
func (s *LLMService) CheckLLM(ctx context.Context, id int64) (bool, error) {
	llm, err := s.Get(ctx, id)
	if err != nil || llm == nil {
		return false, err
	}
	return llm.Status == types.StatusActive, nil
}
