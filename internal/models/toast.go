package models

import "time"

type ToastStatus string

const (
	ToastSuccess ToastStatus = "success"
	ToastError   ToastStatus = "error"
)

type Toast struct {
	Title    string        `json:"title"`
	Status   ToastStatus   `json:"status"`
	Duration time.Duration `json:"duration,omitempty"`
}

func SuccessToast(title string) Toast {
	return Toast{Title: title, Status: ToastSuccess, Duration: 3 * time.Second}
}

func ErrorToast(title string) Toast {
	return Toast{Title: title, Status: ToastError}
}
