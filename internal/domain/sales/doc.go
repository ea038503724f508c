// Package sales contains the Sales Reporting bounded context.
// This context turns sales documents pulled from the Bsale API into a flat,
// line-level report enriched with catalog names and variant costs.
//
// Key concepts:
//   - SalesDocument: Value object for an invoice/receipt with its ordered line items
//   - Catalog: Read-only lookup of document types, users, offices or price lists
//   - VariantCostIndex: Unit net cost per variant, built once per report run
//   - ReportRow: One line item joined with its document and resolved catalog names
//   - ReportRun: Metadata of a persisted report execution
//
// Design Pattern: Ports & Adapters
//   - Ports (SalesSource, SnapshotStore, ReportRunRepository, ReportArchive) are defined here
//   - Adapters (Bsale HTTP client, snapshot stores, gorm, S3) live in the infrastructure layer
package sales
