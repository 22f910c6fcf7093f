// Package tools holds the static tool catalog and the typed dispatch registry.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/finassist/finance-assistant/internal/calendar"
	"github.com/finassist/finance-assistant/internal/ledger"
)

// Handler executes one tool call. Arguments arrive as the model's raw JSON;
// a handler encountering a missing required argument fails fast with an
// error, which the orchestration loop folds into an error-text result.
type Handler func(ctx context.Context, args json.RawMessage) (string, error)

// Registry maps advertised tool schemas to their handlers. Construction
// fails if an advertised tool has no handler or a handler has no schema, so
// a wiring mistake is a startup fault rather than a runtime "unknown tool".
type Registry struct {
	schemas  []openai.Tool
	handlers map[string]Handler
}

// New builds the registry over the ledger and calendar collaborators.
func New(ledger *ledger.Manager, cal *calendar.Service) (*Registry, error) {
	st := &sheetTools{ledger: ledger}
	ct := &calendarTools{calendar: cal}

	r := &Registry{
		schemas: catalog(),
		handlers: map[string]Handler{
			"get_sheet_url":         st.getSheetURL,
			"append_to_sheet":       st.appendToSheet,
			"update_specific_row":   st.updateSpecificRow,
			"delete_specific_row":   st.deleteSpecificRow,
			"delete_last_row":       st.deleteLastRow,
			"calculate_total":       st.calculateTotal,
			"create_calendar_event": ct.createEvent,
			"list_calendar_events":  ct.listEvents,
			"update_calendar_event": ct.updateEvent,
			"delete_calendar_event": ct.deleteEvent,
		},
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Registry) validate() error {
	seen := make(map[string]bool, len(r.schemas))
	for _, tool := range r.schemas {
		name := tool.Function.Name
		seen[name] = true
		if _, ok := r.handlers[name]; !ok {
			return fmt.Errorf("advertised tool %q has no registered handler", name)
		}
	}
	for name := range r.handlers {
		if !seen[name] {
			return fmt.Errorf("handler %q has no advertised schema", name)
		}
	}
	return nil
}

// Schemas returns the catalog advertised to the model.
func (r *Registry) Schemas() []openai.Tool {
	return r.schemas
}

// Resolve looks up the handler for a tool name.
func (r *Registry) Resolve(name string) (Handler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

func catalog() []openai.Tool {
	fn := func(def openai.FunctionDefinition) openai.Tool {
		return openai.Tool{Type: openai.ToolTypeFunction, Function: &def}
	}

	return []openai.Tool{
		fn(openai.FunctionDefinition{
			Name:        "get_sheet_url",
			Description: "Get the URL of the Google Accounting Sheet to show to the user.",
			Parameters: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: map[string]jsonschema.Definition{},
			},
		}),
		fn(openai.FunctionDefinition{
			Name:        "append_to_sheet",
			Description: "Record an expense or income item to the accounting sheet.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"item_name": {Type: jsonschema.String, Description: "Name of the item bought or sold"},
					"amount":    {Type: jsonschema.Number, Description: "Cost or value of the item in Euro (or original currency) (number only)"},
					"category":  {Type: jsonschema.String, Description: "Category: Food, Drinks, Clothes, Leisure, AI Tools, Skincare, Gifts, Health, Travel, Transport, Pet Care, Others"},
					"date":      {Type: jsonschema.String, Description: "Date of the expense in 'YYYY-MM-DD' format. If user says 'yesterday', calculate the date."},
					"currency":  {Type: jsonschema.String, Description: "Currency symbol or code (e.g. €, $, CNY, JPY). Default to '€' if not specified."},
					"note":      {Type: jsonschema.String, Description: "Optional note or remark"},
				},
				Required: []string{"item_name", "amount", "category"},
			},
		}),
		fn(openai.FunctionDefinition{
			Name:        "update_specific_row",
			Description: "Modify/Update an existing expense by its Item ID (row number). Use this when user says 'change amount of item 5 to 50' or 'rename #3 to Pizza'.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"row_id":    {Type: jsonschema.Integer, Description: "The row number/ID to update."},
					"item_name": {Type: jsonschema.String, Description: "New item name (optional)."},
					"amount":    {Type: jsonschema.Number, Description: "New amount (number only) (optional)."},
					"category":  {Type: jsonschema.String, Description: "New category (optional)."},
					"date":      {Type: jsonschema.String, Description: "New date 'YYYY-MM-DD' (optional)."},
					"currency":  {Type: jsonschema.String, Description: "Currency symbol if amount is changed (default '€')."},
					"note":      {Type: jsonschema.String, Description: "New note (optional)."},
				},
				Required: []string{"row_id"},
			},
		}),
		fn(openai.FunctionDefinition{
			Name:        "delete_specific_row",
			Description: "Delete a specific row by its Item ID (row number). Use this when user says 'delete item 5' or 'remove #3'.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"row_id": {Type: jsonschema.Integer, Description: "The row number/ID to delete (e.g. 5, 10)."},
				},
				Required: []string{"row_id"},
			},
		}),
		fn(openai.FunctionDefinition{
			Name:        "delete_last_row",
			Description: "Delete the last recorded expense/row from the sheet (Undo). Use this when user says 'delete', 'undo', 'remove last'.",
			Parameters: jsonschema.Definition{
				Type:       jsonschema.Object,
				Properties: map[string]jsonschema.Definition{},
			},
		}),
		fn(openai.FunctionDefinition{
			Name:        "calculate_total",
			Description: "Calculate total expenses for a specific period. You MUST convert natural language (e.g. 'this week') to actual dates (YYYY-MM-DD).",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"start_date": {Type: jsonschema.String, Description: "Start date (inclusive) in 'YYYY-MM-DD' format."},
					"end_date":   {Type: jsonschema.String, Description: "End date (inclusive) in 'YYYY-MM-DD' format."},
				},
				Required: []string{"start_date", "end_date"},
			},
		}),
		fn(openai.FunctionDefinition{
			Name:        "create_calendar_event",
			Description: "Create a new event in the Google Calendar.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"summary":          {Type: jsonschema.String, Description: "Title of the event"},
					"start_time_str":   {Type: jsonschema.String, Description: "Start time in 'YYYY-MM-DD HH:MM' format"},
					"duration_minutes": {Type: jsonschema.Integer, Description: "Duration in minutes (default 60)"},
				},
				Required: []string{"summary", "start_time_str"},
			},
		}),
		fn(openai.FunctionDefinition{
			Name:        "list_calendar_events",
			Description: "List upcoming calendar events to check availability or find Event IDs for deletion/modification.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"max_results": {Type: jsonschema.Integer, Description: "Max number of events to list (default 10)."},
				},
			},
		}),
		fn(openai.FunctionDefinition{
			Name:        "update_calendar_event",
			Description: "Update/Modify an existing calendar event. You MUST list events first to get the Event ID.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"event_id":         {Type: jsonschema.String, Description: "The Event ID to update."},
					"summary":          {Type: jsonschema.String, Description: "New title (optional)."},
					"start_time_str":   {Type: jsonschema.String, Description: "New start time 'YYYY-MM-DD HH:MM' (optional)."},
					"duration_minutes": {Type: jsonschema.Integer, Description: "New duration in minutes (optional)."},
				},
				Required: []string{"event_id"},
			},
		}),
		fn(openai.FunctionDefinition{
			Name:        "delete_calendar_event",
			Description: "Delete a calendar event. You MUST list events first to get the Event ID.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"event_id": {Type: jsonschema.String, Description: "The Event ID to delete."},
				},
				Required: []string{"event_id"},
			},
		}),
	}
}
