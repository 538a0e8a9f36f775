package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/campusplan/scheduler-engine/internal/appconfig"
	"github.com/campusplan/scheduler-engine/internal/obslog"
	"github.com/campusplan/scheduler-engine/scheduler"
)

// yamlInput is the on-disk shape of the course catalog the CLI reads,
// mirroring scheduler.InputData field-for-field so the YAML file matches
// §6.1's InputData contract directly.
type yamlInput struct {
	Courses []struct {
		Code             string   `yaml:"code"`
		Name             string   `yaml:"name"`
		Credits          int      `yaml:"credits"`
		RequiredRoomType string   `yaml:"required_room_type"`
		FacultyIDs       []string `yaml:"faculty_ids"`
	} `yaml:"courses"`
	Rooms []struct {
		ID       string `yaml:"id"`
		Name     string `yaml:"name"`
		Capacity int    `yaml:"capacity"`
		Type     string `yaml:"type"`
		Building string `yaml:"building"`
	} `yaml:"rooms"`
	StudentGroups []struct {
		ID            string   `yaml:"id"`
		Name          string   `yaml:"name"`
		Size          int      `yaml:"size"`
		CourseIDs     []string `yaml:"course_ids"`
		TeacherIDs    []string `yaml:"teacher_ids"`
		HoursRequired []int    `yaml:"hours_required"`
	} `yaml:"student_groups"`
	Faculties []struct {
		ID         string `yaml:"id"`
		Name       string `yaml:"name"`
		Department string `yaml:"department"`
		AvailDays  string `yaml:"avail_days"`
		AvailTimes string `yaml:"avail_times"`
	} `yaml:"faculties"`
	Days  int `yaml:"days"`
	Hours int `yaml:"hours"`
}

func (y yamlInput) toInputData() scheduler.InputData {
	in := scheduler.InputData{Days: y.Days, Hours: y.Hours}
	for _, c := range y.Courses {
		in.Courses = append(in.Courses, scheduler.CourseInput{
			Code: c.Code, Name: c.Name, Credits: c.Credits,
			RequiredRoomType: c.RequiredRoomType, FacultyIDs: c.FacultyIDs,
		})
	}
	for _, r := range y.Rooms {
		in.Rooms = append(in.Rooms, scheduler.RoomInput{
			ID: r.ID, Name: r.Name, Capacity: r.Capacity, Type: r.Type, Building: r.Building,
		})
	}
	for _, g := range y.StudentGroups {
		in.StudentGroups = append(in.StudentGroups, scheduler.StudentGroupInput{
			ID: g.ID, Name: g.Name, Size: g.Size,
			CourseIDs: g.CourseIDs, TeacherIDs: g.TeacherIDs, HoursRequired: g.HoursRequired,
		})
	}
	for _, f := range y.Faculties {
		in.Faculties = append(in.Faculties, scheduler.FacultyInput{
			ID: f.ID, Name: f.Name, Department: f.Department,
			AvailDays: f.AvailDays, AvailTimes: f.AvailTimes,
		})
	}
	return in
}

func newRunCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the scheduling engine against a course catalog and write the resulting timetables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := appconfig.Load(*configFile)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			logger, err := obslog.New(obslog.Options{
				Env:    obslog.Env(cfg.Env),
				Level:  cfg.Log.Level,
				Format: cfg.Log.Format,
			})
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			defer logger.Sync() //nolint:errcheck

			raw, err := os.ReadFile(cfg.InputFile)
			if err != nil {
				return fmt.Errorf("reading input file %s: %w", cfg.InputFile, err)
			}
			var y yamlInput
			if err := yaml.Unmarshal(raw, &y); err != nil {
				return fmt.Errorf("parsing input file %s: %w", cfg.InputFile, err)
			}

			engine, err := scheduler.New(scheduler.Config{
				PopulationSize: cfg.Engine.PopulationSize,
				MaxGenerations: cfg.Engine.MaxGenerations,
				MutationFactor: cfg.Engine.MutationFactor,
				CrossoverRate:  cfg.Engine.CrossoverRate,
				Seed:           cfg.Engine.Seed,
				Debug:          cfg.Engine.Debug,
			}, scheduler.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("constructing engine: %w", err)
			}

			timeout := cfg.Engine.Timeout
			if timeout <= 0 {
				timeout = 2 * time.Minute
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			result, err := engine.Run(ctx, y.toInputData())
			if err != nil {
				return fmt.Errorf("running engine: %w", err)
			}

			out, err := yaml.Marshal(map[string]interface{}{
				"timetables":   result.Timetables,
				"manual_cells": result.ManualCells,
			})
			if err != nil {
				return fmt.Errorf("serializing result: %w", err)
			}
			if err := os.WriteFile(cfg.OutputFile, out, 0o644); err != nil {
				return fmt.Errorf("writing output file %s: %w", cfg.OutputFile, err)
			}

			logger.Info("schedule written",
				zap.String("output_file", cfg.OutputFile),
				zap.Float64("fitness", result.FitnessScore),
				zap.Bool("hard_constraints_satisfied", result.Summary.HardConstraintsSatisfied),
			)
			return nil
		},
	}
}
