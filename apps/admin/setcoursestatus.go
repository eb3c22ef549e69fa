package main

import (
	"context"

	"github.com/darasahq/darasa/core/course"
)

func (cli *commandLine) setCourseStatus(courseID, status, note string) error {
	_, err := cli.courseSvc.SetStatus(context.Background(), courseID, course.SetCourseStatus{
		Status: status,
		Note:   note,
	})
	return err
}
