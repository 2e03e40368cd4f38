package api

import (
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/timeacct"
)

// employeeResponse is the flattened view of one employee's session state.
type employeeResponse struct {
	EmployeeID   string           `json:"employeeId"`
	EmployeeName string           `json:"employeeName"`
	Phase        attendance.Phase `json:"phase"`
	CheckInAt    *time.Time       `json:"checkInAt"`
	CheckOutAt   *time.Time       `json:"checkOutAt"`
	BreakStartAt *time.Time       `json:"breakStartAt"`
	TotalBreak   string           `json:"totalBreak"`
	BreakIns     int              `json:"breakIns"`
}

func newEmployeeResponse(id string, st attendance.State) employeeResponse {
	return employeeResponse{
		EmployeeID:   id,
		EmployeeName: st.EmployeeName,
		Phase:        st.Phase,
		CheckInAt:    st.CheckInAt,
		CheckOutAt:   st.CheckOutAt,
		BreakStartAt: st.BreakStartAt,
		TotalBreak:   timeacct.FormatHMS(st.TotalBreak),
		BreakIns:     st.BreakIns,
	}
}

// GetEmployees handles the GET /api/employees request.
func (h *Handler) GetEmployees(c *gin.Context) {
	states := h.states.States()

	response := make([]employeeResponse, 0, len(states))
	for id, st := range states {
		response = append(response, newEmployeeResponse(id, st))
	}
	sort.Slice(response, func(i, j int) bool {
		return response[i].EmployeeID < response[j].EmployeeID
	})

	c.JSON(http.StatusOK, response)
}

// GetEmployee handles the GET /api/employees/{id} request.
func (h *Handler) GetEmployee(c *gin.Context) {
	id := c.Param("id")
	st, ok := h.states.State(id)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Employee not found"})
		return
	}
	c.JSON(http.StatusOK, newEmployeeResponse(id, st))
}

// GetLedger handles the GET /api/ledger request.
func (h *Handler) GetLedger(c *gin.Context) {
	c.JSON(http.StatusOK, h.ledger.Rows())
}
