package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/school-system/gradebook/internal/models"
	"github.com/school-system/gradebook/internal/services"
)

type sampleGrade struct {
	studentNumber string
	subjectCode   string
	components    models.GradeComponents
}

func seedSampleData(ctx context.Context, records *services.RecordService) error {
	snap, err := records.Snapshot(ctx)
	if err != nil {
		return err
	}
	if len(snap.Students) > 0 || len(snap.Subjects) > 0 {
		log.Info().Msg("Records already exist, skipping seed")
		return nil
	}

	students := []models.Student{
		{StudentNumber: "2024-0001", FirstName: "Maria", LastName: "Santos", Course: "BS Computer Science", YearLevel: 2},
		{StudentNumber: "2024-0002", FirstName: "Jose", LastName: "Reyes", Course: "BS Information Technology", YearLevel: 1},
		{StudentNumber: "2024-0003", FirstName: "Ana", LastName: "Cruz", Course: "BS Computer Science", YearLevel: 3},
	}
	subjects := []models.Subject{
		{SubjectCode: "CS101", SubjectName: "Introduction to Programming", Instructor: "Dr. Lim"},
		{SubjectCode: "MATH201", SubjectName: "Discrete Mathematics", Instructor: "Prof. Tan"},
		{SubjectCode: "ENG102", SubjectName: "Technical Writing", Instructor: "Ms. Garcia"},
	}
	f := models.Float
	grades := []sampleGrade{
		{"2024-0001", "CS101", models.GradeComponents{Prelim: f(85), Midterm: f(90), Semifinal: f(88), Final: f(92)}},
		{"2024-0001", "MATH201", models.GradeComponents{Prelim: f(78), Midterm: f(82), Semifinal: f(80), Final: f(85)}},
		{"2024-0002", "CS101", models.GradeComponents{Prelim: f(70), Midterm: f(74), Semifinal: f(72)}},
		{"2024-0003", "ENG102", models.GradeComponents{Prelim: f(95), Midterm: f(93), Semifinal: f(96), Final: f(98)}},
	}

	createdStudents := make(map[string]models.Student, len(students))
	for _, s := range students {
		created, err := records.CreateStudent(ctx, s)
		if err != nil {
			return fmt.Errorf("failed to create student %s: %w", s.StudentNumber, err)
		}
		createdStudents[s.StudentNumber] = created
	}
	createdSubjects := make(map[string]models.Subject, len(subjects))
	for _, s := range subjects {
		created, err := records.CreateSubject(ctx, s)
		if err != nil {
			return fmt.Errorf("failed to create subject %s: %w", s.SubjectCode, err)
		}
		createdSubjects[s.SubjectCode] = created
	}
	for _, g := range grades {
		_, err := records.CreateGrade(ctx, models.Grade{
			StudentID:       createdStudents[g.studentNumber].ID,
			SubjectID:       createdSubjects[g.subjectCode].ID,
			GradeComponents: g.components,
		})
		if err != nil {
			return fmt.Errorf("failed to create grade %s/%s: %w", g.studentNumber, g.subjectCode, err)
		}
	}

	log.Info().
		Int("students", len(students)).
		Int("subjects", len(subjects)).
		Int("grades", len(grades)).
		Msg("Sample data seeded")
	return nil
}
