package AOF

import "io"

// Checkpoint обрезает журнал после успешного снапшота.
//
// Алгоритм (буфер докатки, как в Redis rewrite):
//  1. Включаем checkpointing → processEntry дублирует записи в pending
//  2. save() снимает и пишет снапшот кеша
//  3. Под мьютексом выбрасываем несброшенный буфер, обрезаем файл
//  4. Дописываем pending - записи, которые могли не попасть в снапшот
//
// Вставка сначала попадает в шард, потом в канал журнала. Значит всё,
// что обработано до шага 1, уже есть в снапшоте, а всё остальное - в pending
// или ещё в канале. Если save() вернул ошибку, журнал не трогаем.
func (a *AOF) Checkpoint(save func() error) error {
	a.mu.Lock()
	a.pending = a.pending[:0]
	a.checkpointing = true
	a.mu.Unlock()

	saveErr := save()

	a.mu.Lock()
	defer a.mu.Unlock()

	pending := a.pending
	a.pending = nil
	a.checkpointing = false

	if saveErr != nil {
		return saveErr
	}

	a.writer.Reset(a.file)
	if err := a.file.Truncate(0); err != nil {
		return err
	}
	if _, err := a.file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	for _, entry := range pending {
		a.writer.Write(entry)
	}
	if err := a.writer.Flush(); err != nil {
		return err
	}
	return a.file.Sync()
}
