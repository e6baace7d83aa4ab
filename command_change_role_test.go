package portal_test

import (
	"context"
	"testing"

	"github.com/campuskit/portal"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeRoleMessageType(t *testing.T) {
	msg := portal.ChangeRoleMessage{}
	assert.Equal(t, "user.change_role", msg.Type())
}

func TestChangeRoleHandlerRejectsUnknownRole(t *testing.T) {
	handler := portal.NewChangeRoleHandler(nil, nil)

	err := handler.Execute(context.Background(), portal.ChangeRoleMessage{
		UserID: "b3b9c4d0-0000-0000-0000-000000000001",
		Role:   "superuser",
		Status: portal.StatusAccepted,
	})

	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "INVALID_ROLE", richErr.TextCode)
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
}

func TestChangeRoleHandlerRejectsUnknownStatus(t *testing.T) {
	handler := portal.NewChangeRoleHandler(nil, nil)

	err := handler.Execute(context.Background(), portal.ChangeRoleMessage{
		UserID: "b3b9c4d0-0000-0000-0000-000000000001",
		Role:   portal.RoleStaff,
		Status: "banned",
	})

	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, "INVALID_STATUS", richErr.TextCode)
}

func TestChangeRoleHandlerRejectsMalformedUserID(t *testing.T) {
	handler := portal.NewChangeRoleHandler(nil, nil)

	err := handler.Execute(context.Background(), portal.ChangeRoleMessage{
		UserID: "not-a-uuid",
		Role:   portal.RoleStaff,
		Status: portal.StatusAccepted,
	})

	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryValidation, richErr.Category)
}

func TestChangeRoleHandlerHonorsCancelledContext(t *testing.T) {
	handler := portal.NewChangeRoleHandler(nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := handler.Execute(ctx, portal.ChangeRoleMessage{
		UserID: "b3b9c4d0-0000-0000-0000-000000000001",
		Role:   portal.RoleStaff,
		Status: portal.StatusAccepted,
	})

	require.Error(t, err)
	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, goerrors.CategoryOperation, richErr.Category)
}
