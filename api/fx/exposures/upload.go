package exposures

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/Hardik-nyneos/backend/api"
	"github.com/Hardik-nyneos/backend/internal/fileparser"
	"github.com/google/uuid"
)

// stagingTarget binds a multipart field to its staging table and exposure
// type tag.
type stagingTarget struct {
	Field     string
	DataType  string
	TableName string
}

var stagingTargets = []stagingTarget{
	{"input_grn", "grn", "input_grn"},
	{"input_letters_of_credit", "LC", "input_letters_of_credit"},
	{"input_purchase_orders", "PO", "input_purchase_orders"},
	{"input_sales_orders", "SO", "input_sales_orders"},
	{"input_creditors", "creditors", "input_creditors"},
	{"input_debitors", "debitors", "input_debitors"},
}

// businessUnitColumn names the staged column carrying the owning business
// unit for each exposure type.
func businessUnitColumn(dataType string) string {
	switch dataType {
	case "LC":
		return "applicant_name"
	case "PO", "SO":
		return "entity"
	case "creditors", "debitors", "grn":
		return "company"
	}
	return ""
}

type uploadMapping struct {
	SourceCol   string
	TargetTable string
	TargetField string
}

// stagingTableColumns loads the staging table's column set, the allow-list
// for uploaded file headers.
func stagingTableColumns(db *sql.DB, tableName string) (map[string]bool, error) {
	rows, err := db.Query(`SELECT column_name FROM information_schema.columns WHERE table_name = $1`, tableName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	allowed := map[string]bool{}
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		allowed[col] = true
	}
	return allowed, rows.Err()
}

// unknownHeaders returns the file headers that are not columns of the
// staging table. File headers only ever reach SQL after passing this check.
func unknownHeaders(headers []string, allowed map[string]bool) []string {
	unknown := []string{}
	for _, h := range headers {
		if !allowed[h] {
			unknown = append(unknown, h)
		}
	}
	return unknown
}

// absAmount normalizes amount-like values to their magnitude; upstream
// extracts carry payables as negatives.
func absAmount(val interface{}) interface{} {
	switch v := val.(type) {
	case float64:
		return math.Abs(v)
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return math.Abs(f)
		}
	}
	return val
}

// Handler: BatchUploadStagingData - ingests exposure files per type into
// their staging tables, then absorbs staged rows into exposure_headers and
// exposure_line_items per the upload_mappings configuration. Each file is
// all-or-nothing at the staging step.
func BatchUploadStagingData(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
			return
		}
		userID := api.GetUserIDFromCtx(r.Context())
		if userID == "" {
			respondWithError(w, http.StatusBadRequest, "Please login to continue.")
			return
		}
		buNames := api.GetEntityNamesFromCtx(r.Context())
		if len(buNames) == 0 {
			respondWithError(w, http.StatusForbidden, "No accessible business units found")
			return
		}

		results := []map[string]interface{}{}
		allErrors := []string{}
		for _, target := range stagingTargets {
			for _, fh := range r.MultipartForm.File[target.Field] {
				result := processExposureFile(db, fh, target, buNames)
				results = append(results, result)
				if errMsg, ok := result["error"].(string); ok && errMsg != "" {
					allErrors = append(allErrors, errMsg)
				}
			}
		}
		if len(results) == 0 {
			allErrors = append(allErrors, "No files found.")
		}

		w.Header().Set("Content-Type", "application/json")
		if len(allErrors) > 0 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": false,
				"error":   strings.Join(allErrors, "; "),
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    results,
		})
	}
}

func processExposureFile(db *sql.DB, fh *multipart.FileHeader, target stagingTarget, buNames []string) map[string]interface{} {
	fail := func(msg string) map[string]interface{} {
		return map[string]interface{}{"filename": fh.Filename, "error": msg}
	}

	file, err := fh.Open()
	if err != nil {
		return fail("Failed to open file")
	}
	data, err := io.ReadAll(file)
	file.Close()
	if err != nil {
		return fail("Failed to read file")
	}
	rawRows, err := fileparser.ParseRows(data, fileparser.Ext(fh.Filename))
	if err != nil || len(rawRows) < 2 {
		return fail("No data in file")
	}
	headers := rawRows[0]
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	allowed, err := stagingTableColumns(db, target.TableName)
	if err != nil {
		return fail("Failed to load staging table columns: " + err.Error())
	}
	if unknown := unknownHeaders(headers, allowed); len(unknown) > 0 {
		return fail("Unknown columns for " + target.TableName + ": " + strings.Join(unknown, ", "))
	}
	dataArr := make([]map[string]interface{}, 0, len(rawRows)-1)
	for _, row := range rawRows[1:] {
		obj := map[string]interface{}{}
		for i, h := range headers {
			if i < len(row) {
				obj[h] = row[i]
			} else {
				obj[h] = nil
			}
		}
		dataArr = append(dataArr, obj)
	}

	// scope check before anything is written
	buCol := businessUnitColumn(target.DataType)
	invalidRows := []string{}
	for _, row := range dataArr {
		if buCol == "" {
			continue
		}
		buVal, _ := row[buCol].(string)
		if !contains(buNames, buVal) {
			ref := "(no ref)"
			for _, k := range []string{"reference_no", "document_no", "system_lc_number", "bank_reference"} {
				if v, ok := row[k].(string); ok && v != "" {
					ref = v
					break
				}
			}
			invalidRows = append(invalidRows, ref)
		}
	}
	if len(invalidRows) > 0 {
		return map[string]interface{}{
			"filename":            fh.Filename,
			"error":               "Some rows have business_unit not allowed for this user.",
			"invalidReferenceNos": invalidRows,
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fail("Failed to start DB transaction")
	}
	defer tx.Rollback()

	uploadBatchID := uuid.New().String()
	insertedRows := 0
	for i, row := range dataArr {
		row["upload_batch_id"] = uploadBatchID
		row["row_number"] = i + 1
		keys := []string{}
		vals := []interface{}{}
		placeholders := []string{}
		for k, v := range row {
			keys = append(keys, k)
			vals = append(vals, v)
			placeholders = append(placeholders, fmt.Sprintf("$%d", len(vals)))
		}
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", target.TableName, strings.Join(keys, ", "), strings.Join(placeholders, ", "))
		if _, err := tx.Exec(query, vals...); err != nil {
			return fail("Failed to insert row: " + err.Error())
		}
		insertedRows++
	}

	insertedFinalRows, absorptionErrs := absorbStagedBatch(tx, target, uploadBatchID)
	if err := tx.Commit(); err != nil {
		return fail("Failed to commit transaction: " + err.Error())
	}

	result := map[string]interface{}{
		"success":           insertedFinalRows > 0,
		"filename":          fh.Filename,
		"uploadBatchId":     uploadBatchID,
		"insertedRows":      insertedRows,
		"insertedFinalRows": insertedFinalRows,
	}
	if insertedFinalRows > 0 {
		result["message"] = "Batch absorbed into exposures"
	} else {
		result["message"] = "Batch uploaded to staging table only"
	}
	if len(absorptionErrs) > 0 {
		result["error"] = strings.Join(absorptionErrs, "; ")
	}
	return result
}

// absorbStagedBatch maps staged rows into exposure_headers and
// exposure_line_items using the upload_mappings configuration for the
// exposure type.
func absorbStagedBatch(tx *sql.Tx, target stagingTarget, uploadBatchID string) (int, []string) {
	errs := []string{}
	mappingRows, err := tx.Query(`SELECT source_column_name, target_table_name, target_field_name FROM upload_mappings WHERE exposure_type = $1 ORDER BY target_table_name, target_field_name`, target.DataType)
	if err != nil {
		return 0, append(errs, "failed to load upload mappings: "+err.Error())
	}
	mappings := []uploadMapping{}
	for mappingRows.Next() {
		var m uploadMapping
		if err := mappingRows.Scan(&m.SourceCol, &m.TargetTable, &m.TargetField); err == nil {
			mappings = append(mappings, m)
		}
	}
	mappingRows.Close()
	if len(mappings) == 0 {
		return 0, errs
	}

	stagedRows, err := tx.Query(fmt.Sprintf(`SELECT * FROM %s WHERE upload_batch_id = $1`, target.TableName), uploadBatchID)
	if err != nil {
		return 0, append(errs, "failed to read staged rows: "+err.Error())
	}
	staged := scanRowsToMaps(stagedRows)
	stagedRows.Close()

	inserted := 0
	for _, row := range staged {
		header, headerDetails := mapStagedRow(row, mappings, target, "exposure_headers", "additional_header_details")
		header["additional_header_details"] = headerDetails

		headerKeys := []string{}
		headerVals := []interface{}{}
		headerPlaceholders := []string{}
		for k, v := range header {
			headerKeys = append(headerKeys, k)
			headerVals = append(headerVals, marshalIfMap(v, &errs))
			headerPlaceholders = append(headerPlaceholders, fmt.Sprintf("$%d", len(headerVals)))
		}
		headerInsert := fmt.Sprintf("INSERT INTO exposure_headers (%s) VALUES (%s) RETURNING exposure_header_id", strings.Join(headerKeys, ", "), strings.Join(headerPlaceholders, ", "))
		var exposureHeaderID string
		if err := tx.QueryRow(headerInsert, headerVals...).Scan(&exposureHeaderID); err != nil {
			errs = append(errs, "header insert error: "+err.Error())
			continue
		}
		inserted++

		line, lineDetails := mapStagedRow(row, mappings, target, "exposure_line_items", "additional_line_details")
		if len(lineDetails) > 0 {
			line["additional_line_details"] = lineDetails
		}
		line["exposure_header_id"] = exposureHeaderID
		delete(line, "linked_exposure_header_id")

		lineKeys := []string{}
		lineVals := []interface{}{}
		linePlaceholders := []string{}
		for k, v := range line {
			lineKeys = append(lineKeys, k)
			lineVals = append(lineVals, marshalIfMap(v, &errs))
			linePlaceholders = append(linePlaceholders, fmt.Sprintf("$%d", len(lineVals)))
		}
		lineInsert := fmt.Sprintf("INSERT INTO exposure_line_items (%s) VALUES (%s)", strings.Join(lineKeys, ", "), strings.Join(linePlaceholders, ", "))
		if _, err := tx.Exec(lineInsert, lineVals...); err != nil {
			errs = append(errs, "line item insert error: "+err.Error())
		}
	}
	return inserted, errs
}

// mapStagedRow applies the mappings bound to targetTable, splitting fields
// between direct columns and the free-form details blob. Mapping source
// columns may be literals (the type tag, "Open", "true", "1") or the whole
// staged row.
func mapStagedRow(staged map[string]interface{}, mappings []uploadMapping, target stagingTarget, targetTable, detailsField string) (map[string]interface{}, map[string]interface{}) {
	out := map[string]interface{}{}
	details := map[string]interface{}{}
	for _, m := range mappings {
		if m.TargetTable != targetTable {
			continue
		}
		var val interface{}
		switch m.SourceCol {
		case target.DataType:
			val = target.DataType
		case "Open":
			val = "Open"
		case "true":
			val = true
		case "1":
			val = 1
		case target.TableName:
			val = staged
		default:
			val = staged[m.SourceCol]
		}
		if m.TargetField == detailsField {
			details[m.SourceCol] = val
			continue
		}
		if strings.Contains(m.TargetField, "amount") {
			val = absAmount(val)
		}
		out[m.TargetField] = val
	}
	return out, details
}

func marshalIfMap(v interface{}, errs *[]string) interface{} {
	if m, ok := v.(map[string]interface{}); ok {
		jsonVal, err := json.Marshal(m)
		if err != nil {
			*errs = append(*errs, "marshal error: "+err.Error())
			return nil
		}
		return jsonVal
	}
	return v
}
