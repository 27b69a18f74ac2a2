package model

type Group struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	TeacherID    int64  `json:"teacherId"`
	TeacherName  string `json:"teacherName"`
	StudentCount int    `json:"studentCount"`
}
