// internal/handlers/errors.go
package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artmarket-backend/internal/i18n"
	"github.com/javajoker/artmarket-backend/internal/services"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

// handleServiceError writes the response for an error returned by a service.
// Anything that is not a ServiceError is logged and reported as a 500.
func handleServiceError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)

	var serviceErr *services.ServiceError
	errors.As(err, &serviceErr)

	switch {
	case errors.Is(err, services.ErrValidation):
		if serviceErr != nil && len(serviceErr.Details) > 0 {
			utils.ValidationErrorResponse(c, serviceErr.Details)
			return
		}
		utils.BadRequestResponse(c, err.Error(), nil)
	case errors.Is(err, services.ErrAuthentication):
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidCredentials))
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c, err.Error())
	case errors.Is(err, services.ErrNotFound):
		resource := "user"
		if serviceErr != nil && serviceErr.Resource != "" {
			resource = serviceErr.Resource
		}
		utils.NotFoundResponse(c, resource)
	case errors.Is(err, services.ErrConflict):
		utils.ConflictResponse(c, err.Error())
	case errors.Is(err, services.ErrUnavailable):
		utils.ServiceUnavailableResponse(c, err.Error())
	default:
		logrus.WithError(err).WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.FullPath(),
		}).Error("Request failed")
		utils.InternalErrorResponse(c, "")
	}
}

// requireUserID reads the authenticated user, answering 401 when absent.
func requireUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := utils.GetUserIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return uuid.Nil, false
	}
	return userID, true
}

func parseIDParam(c *gin.Context, resource string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+resource+" ID", nil)
		return uuid.Nil, false
	}
	return id, true
}

// formImage opens the optional image part of a multipart form. The returned
// close function is always safe to call.
func formImage(c *gin.Context, field string) (*services.ImageUpload, func(), error) {
	noop := func() {}

	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, err
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, err
	}

	return uploadFromHeader(file, header), func() { file.Close() }, nil
}

func uploadFromHeader(file multipart.File, header *multipart.FileHeader) *services.ImageUpload {
	return &services.ImageUpload{
		Reader:   file,
		Size:     header.Size,
		Filename: header.Filename,
	}
}
