package processing

import (
	"sort"
	"strconv"
	"strings"

	"k8s.io/klog/v2"
)

const (
	Skipped  = 0
	Done     = 2
	Failed   = 3
	FailedDB = 4
)

// ProcessingTask records which tasks already ran for a photo
type ProcessingTask struct {
	PhotoID uint64 `gorm:"primaryKey"`
	Status  string `gorm:"type:varchar(1024)"` // Contains comma-separated pairs of task and status, e.g. "thumb:2,metadata:0"
	Tasks   int    `gorm:"not null;default:0;index"`
}

func (pt *ProcessingTask) statusToMap() map[string]int {
	result := map[string]int{}
	if pt.Status == "" {
		return result
	}
	for _, v := range strings.Split(pt.Status, ",") {
		current := strings.Split(v, ":")
		if len(current) != 2 {
			klog.Warningf("Task status contains invalid chars, photo: %d, status: %s", pt.PhotoID, pt.Status)
			continue
		}
		result[current[0]], _ = strconv.Atoi(current[1])
	}
	return result
}

func (pt *ProcessingTask) updateWith(statusMap map[string]int) {
	result := []string{}
	for k, v := range statusMap {
		result = append(result, k+":"+strconv.Itoa(v))
	}
	sort.Strings(result)
	pt.Status = strings.Join(result, ",")
	pt.Tasks = len(statusMap)
}
