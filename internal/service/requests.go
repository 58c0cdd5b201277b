package service

import (
	schedulerv1 "github.com/gurkanbulca/clarity/api/scheduler/v1"
	"github.com/gurkanbulca/clarity/internal/models"
)

// TaskInputFromRequest converts a wire create request. Both transports use it.
func TaskInputFromRequest(req schedulerv1.CreateTaskRequest) (TaskInput, error) {
	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return TaskInput{}, err
	}
	return TaskInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    category,
		Priority:    req.Priority,
		Start:       req.Start,
		End:         req.End,
		Duration:    req.Duration,
		DueDate:     req.DueDate,
		IsFixed:     req.IsFixed,
	}, nil
}

func TaskPatchFromRequest(req schedulerv1.UpdateTaskRequest) (models.TaskPatch, error) {
	patch := models.TaskPatch{
		Title:          req.Title,
		Description:    req.Description,
		Priority:       req.Priority,
		Start:          req.Start,
		End:            req.End,
		DueDate:        req.DueDate,
		IsFixed:        req.IsFixed,
		ActualDuration: req.ActualDuration,
	}
	if req.Category != nil {
		c, err := models.ParseCategory(*req.Category)
		if err != nil {
			return models.TaskPatch{}, err
		}
		patch.Category = &c
	}
	if req.Status != nil {
		st, err := models.ParseStatus(*req.Status)
		if err != nil {
			return models.TaskPatch{}, err
		}
		patch.Status = &st
	}
	return patch, nil
}

func ProfileUpdateFromRequest(req schedulerv1.UpdateProfileRequest) (ProfileUpdate, error) {
	update := ProfileUpdate{
		Timezone:    req.Timezone,
		WorkHours:   req.WorkHours,
		SleepWindow: req.SleepWindow,
	}
	if len(req.CategoryDurations) > 0 {
		update.CategoryDurations = make(map[models.Category]int, len(req.CategoryDurations))
		for raw, minutes := range req.CategoryDurations {
			c, err := models.ParseCategory(raw)
			if err != nil {
				return ProfileUpdate{}, err
			}
			update.CategoryDurations[c] = minutes
		}
	}
	return update, nil
}
