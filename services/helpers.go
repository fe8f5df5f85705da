package services

import "fmt"

// tournamentRoom — имя комнаты вебсокета для трансляции событий турнира.
func tournamentRoom(tournamentID int) string {
	return fmt.Sprintf("tournament_%d", tournamentID)
}
