package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/Hardik-nyneos/backend/api/auth"
	"github.com/Hardik-nyneos/backend/api/constants"
)

type contextKey string

const (
	BusinessUnitsKey contextKey = "businessUnits"
	EntityIDsKey     contextKey = "entityIDs"
	SessionKey       contextKey = "session"
	UserIDKey        contextKey = "userID"
)

// Helper functions for context retrieval
func GetEntityNamesFromCtx(ctx context.Context) []string {
	if names, ok := ctx.Value(BusinessUnitsKey).([]string); ok {
		return names
	}
	return []string{}
}

func GetEntityIDsFromCtx(ctx context.Context) []string {
	if ids, ok := ctx.Value(EntityIDsKey).([]string); ok {
		return ids
	}
	return []string{}
}

func GetSessionFromCtx(ctx context.Context) *auth.UserSession {
	if session, ok := ctx.Value(SessionKey).(*auth.UserSession); ok {
		return session
	}
	return nil
}

func GetUserIDFromCtx(ctx context.Context) string {
	if userID, ok := ctx.Value(UserIDKey).(string); ok {
		return userID
	}
	return ""
}

// IsEntityAllowed reports whether the identifier matches an accessible
// entity id or name from the resolved business unit tree.
func IsEntityAllowed(ctx context.Context, entityIdentifier string) bool {
	entityNames := GetEntityNamesFromCtx(ctx)
	entityIDs := GetEntityIDsFromCtx(ctx)

	if len(entityNames) == 0 && len(entityIDs) == 0 {
		return false
	}

	identifierUpper := strings.ToUpper(strings.TrimSpace(entityIdentifier))

	for _, id := range entityIDs {
		if strings.ToUpper(strings.TrimSpace(id)) == identifierUpper {
			return true
		}
	}
	for _, name := range entityNames {
		if strings.ToUpper(strings.TrimSpace(name)) == identifierUpper {
			return true
		}
	}
	return false
}

// BusinessUnitMiddleware resolves the caller's session and accessible entity
// subtree once per request and attaches both to the request context.
func BusinessUnitMiddleware(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var userID string
			ct := r.Header.Get(constants.ContentTypeText)
			if strings.HasPrefix(ct, constants.ContentTypeJSON) && (r.Method == "POST" || r.Method == "PUT") {
				var bodyMap map[string]interface{}
				_ = json.NewDecoder(r.Body).Decode(&bodyMap)
				if uid, ok := bodyMap["user_id"].(string); ok {
					userID = uid
				}
				// Re-marshal and reset body for downstream handlers
				bodyBytes, _ := json.Marshal(bodyMap)
				r.Body = io.NopCloser(strings.NewReader(string(bodyBytes)))
			} else if strings.HasPrefix(ct, "multipart/form-data") && (r.Method == "POST" || r.Method == "PUT") {
				err := r.ParseMultipartForm(32 << 20) // 32MB
				if err == nil {
					userID = r.FormValue("user_id")
				}
			}

			if userID == "" {
				log.Println("[ERROR] Missing user_id in request")
				RespondWithError(w, http.StatusBadRequest, constants.ErrMissingUserID)
				return
			}

			session := auth.FindSessionByUserID(userID)
			if session == nil {
				log.Println("[ERROR] Invalid session for user_id:", userID)
				RespondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
				return
			}

			// Get user's business unit name
			var userBu string
			err := db.QueryRow("SELECT business_unit_name FROM users WHERE id = $1", userID).Scan(&userBu)
			if err != nil || userBu == "" {
				log.Println("[ERROR] User not found or has no business unit assigned for user_id:", userID)
				RespondWithError(w, http.StatusForbidden, constants.ErrNoAccessibleBusinessUnit)
				return
			}

			var rootEntityId string
			err = db.QueryRow(`SELECT entity_id FROM masterEntity
				WHERE UPPER(TRIM(entity_name)) = UPPER(TRIM($1))
				AND (is_deleted = false OR is_deleted IS NULL)
				AND (is_top_level_entity = TRUE OR approval_status ILIKE 'approved')
				LIMIT 1`, userBu).Scan(&rootEntityId)
			if err != nil {
				log.Printf("[ERROR] Business unit entity not found in masterentity for userBu: '%s' (error: %v)", userBu, err)
				RespondWithError(w, http.StatusForbidden, "Business unit '"+userBu+"' not found in system. Please contact administrator.")
				return
			}

			rows, err := db.Query(`
               WITH RECURSIVE descendants AS (
                    SELECT entity_id, entity_name
                    FROM masterEntity
                    WHERE entity_id = $1 AND (is_deleted = false OR is_deleted IS NULL)

                    UNION ALL

                    SELECT me.entity_id, me.entity_name
                    FROM masterEntity me
                    INNER JOIN entityRelationships er ON me.entity_id = er.child_entity_id
                    INNER JOIN descendants d ON er.parent_entity_id = d.entity_id
                    WHERE (me.is_deleted = false OR me.is_deleted IS NULL)
                      AND me.approval_status ILIKE 'approved'
                )
                SELECT DISTINCT entity_id, entity_name FROM descendants
            `, rootEntityId)
			if err != nil {
				log.Printf("[ERROR] entity hierarchy query failed: %v", err)
				RespondWithError(w, http.StatusInternalServerError, constants.ErrDB)
				return
			}
			defer rows.Close()

			var buNames []string
			var buEntityIDs []string
			for rows.Next() {
				var entityID, entityName string
				if err := rows.Scan(&entityID, &entityName); err == nil {
					buEntityIDs = append(buEntityIDs, entityID)
					buNames = append(buNames, entityName)
				}
			}

			if len(buNames) == 0 {
				log.Printf("[ERROR] No accessible business units found for rootEntityId: %s", rootEntityId)
				RespondWithError(w, http.StatusForbidden, constants.ErrNoAccessibleBusinessUnit)
				return
			}

			ctx := context.WithValue(r.Context(), BusinessUnitsKey, buNames)
			ctx = context.WithValue(ctx, EntityIDsKey, buEntityIDs)
			ctx = context.WithValue(ctx, SessionKey, session)
			ctx = context.WithValue(ctx, UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
