package fx

import (
	"database/sql"
	"log"
	"net/http"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/Hardik-nyneos/backend/api/fx/exposures"
	"github.com/Hardik-nyneos/backend/api/fx/forwards"

	"github.com/jackc/pgx/v5/pgxpool"
)

func StartFXService(db *sql.DB, pool *pgxpool.Pool) {
	mux := http.NewServeMux()
	mux.HandleFunc("/fx/health", func(w http.ResponseWriter, r *http.Request) {
		api.RespondWithResult(w, true, "")
	})

	scoped := api.BusinessUnitMiddleware(db)

	/*-------------     exposures      --------------------*/
	mux.Handle("/fx/exposures/batch-upload-staging", scoped(exposures.BatchUploadStagingData(db)))
	mux.Handle("/fx/exposures/edit", scoped(exposures.EditExposureHeadersLineItemsJoined(db)))
	mux.Handle("/fx/exposures/headers-line-items", scoped(exposures.GetExposureHeadersLineItems(db)))
	mux.Handle("/fx/exposures/pending-headers-line-items", scoped(exposures.GetPendingApprovalHeadersLineItems(db)))
	mux.Handle("/fx/exposures/delete-multiple-headers", scoped(exposures.DeleteExposureHeaders(db)))
	mux.Handle("/fx/exposures/reject-multiple-headers", scoped(exposures.RejectMultipleExposureHeaders(db)))
	mux.Handle("/fx/exposures/approve-multiple-headers", scoped(exposures.ApproveMultipleExposureHeaders(db)))

	/*dashboard (pgx pool) */
	mux.Handle("/fx/exposures/dashboard/all", scoped(exposures.GetAllExposures(pool)))
	mux.Handle("/fx/exposures/dashboard/by-year", scoped(exposures.GetExposuresByYear(pool)))

	/*bucketing */
	mux.Handle("/fx/exposures/update-bucketing", scoped(exposures.UpdateExposureHeadersLineItemsBucketing(db)))
	mux.Handle("/fx/exposures/get-bucketing", scoped(exposures.GetExposureHeadersLineItemsBucketing(db)))
	mux.Handle("/fx/exposures/approve-bucketing-status", scoped(exposures.ApproveBucketingStatus(db)))
	mux.Handle("/fx/exposures/reject-bucketing-status", scoped(exposures.RejectBucketingStatus(db)))

	/*hedging-proposals */
	mux.Handle("/fx/exposures/get-hedging-proposals", scoped(exposures.GetHedgingProposalsAggregated(db)))
	mux.Handle("/fx/exposures/maturity-bucket-summary", scoped(exposures.GetMaturityBucketSummary(db)))

	/*linkage */
	mux.Handle("/fx/exposures/hedge-links-details", scoped(exposures.HedgeLinksDetails(db)))
	mux.Handle("/fx/exposures/expfwd-linking-bookings", scoped(exposures.ExpFwdLinkingBookings(db)))
	mux.Handle("/fx/exposures/expfwd-linking", scoped(exposures.ExpFwdLinking(db)))
	mux.Handle("/fx/exposures/link-exposure-hedge", scoped(exposures.LinkExposureHedge(db)))

	// Settlement endpoints
	mux.Handle("/fx/exposures/filter-forward-bookings-for-settlement", scoped(exposures.FilterForwardBookingsForSettlement(db)))
	mux.Handle("/fx/exposures/get-forward-bookings-by-entity-currency", scoped(exposures.GetForwardBookingsByEntityAndCurrency(db)))

	/*-------------     forwards      --------------------*/
	/*mtm */
	mux.Handle("/fx/forwards/upload-mtm", scoped(forwards.UploadMTMFiles(db)))
	mux.Handle("/fx/forwards/get-mtm", scoped(forwards.GetMTMData(db)))

	// Cancel / rollover endpoints
	mux.Handle("/fx/forwards/forward-booking-list", scoped(forwards.GetForwardBookingList(db)))
	mux.Handle("/fx/forwards/exposures-by-booking-ids", scoped(forwards.GetExposuresByBookingIds(db)))
	mux.Handle("/fx/forwards/create-forward-cancellations", scoped(forwards.CreateForwardCancellations(db)))
	mux.Handle("/fx/forwards/create-forward-rollover", scoped(forwards.RolloverForwardBooking(db)))
	mux.Handle("/fx/forwards/pending-cancellations", scoped(forwards.GetPendingCancellations(db)))
	mux.Handle("/fx/forwards/pending-rollovers", scoped(forwards.GetPendingRollovers(db)))
	// Checker (approval) routes
	mux.Handle("/fx/forwards/cancellation-status-request", scoped(forwards.CancellationStatusRequest(db)))
	mux.Handle("/fx/forwards/rollover-status-request", scoped(forwards.RolloverStatusRequest(db)))

	// Booking & confirmation routes
	mux.Handle("/fx/forwards/manual-entry", scoped(forwards.AddForwardBookingManualEntry(db)))
	mux.Handle("/fx/forwards/entity-relevant-list", scoped(forwards.GetEntityRelevantForwardBookings(db)))
	mux.Handle("/fx/forwards/update-fields", scoped(forwards.UpdateForwardBookingFields(db)))
	mux.Handle("/fx/forwards/bulk-update-processing-status", scoped(forwards.BulkUpdateForwardBookingProcessingStatus(db)))
	mux.Handle("/fx/forwards/bulk-delete", scoped(forwards.BulkDeleteForwardBookings(db)))
	mux.Handle("/fx/forwards/manual-confirmation-entry", scoped(forwards.AddForwardConfirmationManualEntry(db)))
	mux.Handle("/fx/forwards/upload-multi", scoped(forwards.UploadForwardBookingsMulti(db)))
	mux.Handle("/fx/forwards/upload-confirmations-multi", scoped(forwards.UploadForwardConfirmationsMulti(db)))
	mux.Handle("/fx/forwards/pending-confirmations", scoped(forwards.GetPendingConfirmationBookings(db)))

	api.LogInfo("FX Service started on :3143")
	err := http.ListenAndServe(":3143", mux)
	if err != nil {
		log.Fatalf("FX Service failed: %v", err)
	}
}
