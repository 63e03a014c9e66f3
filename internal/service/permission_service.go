package service

import (
	"tempiaops/internal/apperror"
	"tempiaops/internal/domain"
)

// OperationType is the kind of action a session wants to perform.
type OperationType string

const (
	OperationView     OperationType = "view"
	OperationCreate   OperationType = "create"
	OperationEdit     OperationType = "edit"
	OperationDelete   OperationType = "delete"
	OperationUpload   OperationType = "upload"
	OperationDownload OperationType = "download"
)

// PermissionService is the single place role policy lives. Every mutating
// service call goes through Check.
type PermissionService struct{}

func NewPermissionService() *PermissionService {
	return &PermissionService{}
}

// Allowed reports whether role may perform operation.
func (s *PermissionService) Allowed(role domain.Role, operation OperationType) bool {
	switch role {
	case domain.RoleAdmin:
		return true

	case domain.RoleViewer:
		// read-only: browse and open files
		return operation == OperationView || operation == OperationDownload

	default:
		return false
	}
}

func (s *PermissionService) Check(session *domain.Session, operation OperationType) error {
	if session == nil {
		return apperror.New(apperror.CodeUnauthorized, "not signed in")
	}
	if !s.Allowed(session.Role, operation) {
		return apperror.New(apperror.CodeForbidden, "operation "+string(operation)+" requires admin role")
	}
	return nil
}
